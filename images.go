package figmadl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ImageFormat задаёт формат экспорта изображения.
type ImageFormat string

const (
	FormatPNG ImageFormat = "png"
	FormatSVG ImageFormat = "svg"
)

// Границы масштаба рендера, принимаемые Figma API.
const (
	MinScale     = 1
	MaxScale     = 4
	DefaultScale = 2
)

// ImageOptions задаёт параметры экспорта. Scale имеет смысл только для PNG.
type ImageOptions struct {
	Format ImageFormat
	Scale  int
}

// withDefaults применяет значения по умолчанию к параметрам экспорта.
func (o ImageOptions) withDefaults() ImageOptions {
	if o.Format == "" {
		o.Format = FormatPNG
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	return o
}

// validate проверяет параметры экспорта.
func (o ImageOptions) validate() error {
	if o.Format != FormatPNG && o.Format != FormatSVG {
		return NewConfigurationError("Format", o.Format, "format must be png or svg")
	}
	if o.Scale < MinScale || o.Scale > MaxScale {
		return NewConfigurationError("Scale", o.Scale, fmt.Sprintf("scale must be between %d and %d", MinScale, MaxScale))
	}
	return nil
}

// imagesResponse описывает тело ответа GET /v1/images/{fileKey}.
// URL узла равен null, когда узел нельзя экспортировать в запрошенном формате.
type imagesResponse struct {
	Err    string             `json:"err"`
	Images map[string]*string `json:"images"`
}

// ImageURLs запрашивает временные подписанные URL изображений для указанных
// узлов документа. Идентификаторы приводятся к каноническому виду и режутся
// на пачки фиксированного размера; пачки обрабатываются строго
// последовательно, чтобы не разрывать общую квоту, с дополнительной паузой
// между пачками. Результат — объединённая карта canonical id -> URL;
// отсутствие ключа означает, что узел нельзя экспортировать.
//
// Ошибка любой пачки фатальна для всего вызова: у идентификаторов этой пачки
// нет пригодных URL, частичное восстановление не имеет смысла.
func (c *Client) ImageURLs(ctx context.Context, fileKey string, nodeIDs []string, opts ImageOptions) (map[string]string, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	if c.tracer != nil {
		var span trace.Span
		ctx, span = c.tracer.StartSpan(ctx, "figma.images.resolve")
		defer span.End()

		span.SetAttributes(
			attribute.String("figma.file_key", fileKey),
			attribute.Int("figma.node_count", len(nodeIDs)),
		)
	}

	ids := CanonicalNodeIDs(nodeIDs)
	chunks := chunkIDs(ids, c.config.Batch.Size)

	urls := make(map[string]string, len(ids))

	for i, chunk := range chunks {
		// Пауза между пачками (не перед первой): дополнительный запас
		// поверх квоты, независимый от собственного ожидания лимитера.
		if i > 0 {
			c.logger.Debug("batch cool-down",
				zap.Int("next_batch", i+1),
				zap.Duration("cooldown", c.config.Batch.Cooldown),
			)
			if err := sleepCtx(ctx, c.config.Batch.Cooldown); err != nil {
				return nil, err
			}
		}

		batch, err := c.resolveBatch(ctx, fileKey, chunk, opts)
		if err != nil {
			return nil, err
		}

		// Ключи пачек не пересекаются по построению, поэтому слияние
		// никогда не перезаписывает ранние записи.
		for id, u := range batch {
			urls[id] = u
		}

		c.metrics.RecordBatch(ctx, len(chunk))
		c.logger.Info("image batch resolved",
			zap.Int("batch", i+1),
			zap.Int("batches", len(chunks)),
			zap.Int("size", len(chunk)),
			zap.Int("resolved", len(batch)),
		)
	}

	return urls, nil
}

// resolveBatch выполняет один управляемый запрос разрешения URL для пачки.
func (c *Client) resolveBatch(ctx context.Context, fileKey string, ids []string, opts ImageOptions) (map[string]string, error) {
	if c.tracer != nil {
		var span = c.tracer.SpanFromContext(ctx)
		span.SetAttributes(attribute.Int("figma.batch_size", len(ids)))
	}

	resp, err := c.getAPI(ctx, c.imagesURL(fileKey, ids, opts))
	if err != nil {
		return nil, fmt.Errorf("resolve image urls: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, NewHTTPError(resp)
	}

	var body imagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode images response: %w", err)
	}

	// Прикладная ошибка в успешном HTTP ответе: сообщение вендора дословно.
	if body.Err != "" {
		return nil, &APIError{Message: body.Err}
	}

	urls := make(map[string]string, len(body.Images))
	for id, u := range body.Images {
		if u == nil || *u == "" {
			// null означает: узел нельзя экспортировать в этом формате.
			continue
		}
		urls[id] = *u
	}

	return urls, nil
}

// imagesURL строит URL запроса разрешения: scale добавляется только для PNG.
func (c *Client) imagesURL(fileKey string, ids []string, opts ImageOptions) string {
	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))
	query.Set("format", string(opts.Format))
	if opts.Format == FormatPNG {
		query.Set("scale", strconv.Itoa(opts.Scale))
	}

	return fmt.Sprintf("%s/v1/images/%s?%s", c.config.BaseURL, url.PathEscape(fileKey), query.Encode())
}

// chunkIDs режет список идентификаторов на пачки размером size, сохраняя порядок.
func chunkIDs(ids []string, size int) [][]string {
	if size <= 0 {
		return [][]string{ids}
	}

	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
