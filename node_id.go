package figmadl

import "strings"

// Node identifiers arrive in two spellings. URLs copied out of the Figma UI
// carry the hyphenated display form ("3228-9855"), while the REST API expects
// the colon-separated canonical form ("3228:9855"). The canonical form keys
// every resolved-URL map and outcome record in this package.

// CanonicalNodeID converts a display-form node identifier to canonical form.
// Applying it to an already-canonical identifier is a no-op.
func CanonicalNodeID(id string) string {
	return strings.ReplaceAll(strings.TrimSpace(id), "-", ":")
}

// DisplayNodeID converts a canonical node identifier back to display form.
func DisplayNodeID(id string) string {
	return strings.ReplaceAll(strings.TrimSpace(id), ":", "-")
}

// CanonicalNodeIDs converts a list of identifiers to canonical form,
// preserving order.
func CanonicalNodeIDs(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = CanonicalNodeID(id)
	}
	return out
}

// NodeFileName derives the output file name for a node: the canonical
// separator is replaced with an underscore and the format extension appended,
// e.g. "3228:9855" + png -> "3228_9855.png". Colons are avoided because they
// are not portable in file names.
func NodeFileName(id string, format ImageFormat) string {
	return strings.ReplaceAll(CanonicalNodeID(id), ":", "_") + "." + string(format)
}
