package figmadl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const streamBufferSize = 32 * 1024 // 32KB

// streamToFile кладёт тело ответа в файл потоково, не буферизуя его целиком
// в памяти. Файл создаётся только после того, как вызывающая сторона
// убедилась в успешном статусе ответа; при ошибке записи недописанный файл
// удаляется, чтобы не оставлять усечённые артефакты.
//
// Возвращает число записанных байт.
func streamToFile(body io.Reader, path string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create file %s: %w", path, err)
	}

	written, err := io.CopyBuffer(file, body, make([]byte, streamBufferSize))
	if err != nil {
		file.Close()
		os.Remove(path)
		return 0, fmt.Errorf("write file %s: %w", path, err)
	}

	if err := file.Close(); err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("close file %s: %w", path, err)
	}

	return written, nil
}
