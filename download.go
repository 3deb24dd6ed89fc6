package figmadl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Outcome описывает результат выгрузки одного узла. Успех и неудача
// отдельных узлов равноправны: неудача одного узла не прерывает выгрузку
// остальных и отражается только в его собственной записи.
type Outcome struct {
	// NodeID — канонический идентификатор узла (с двоеточием).
	NodeID string
	// Success сообщает, записан ли файл узла на диск.
	Success bool
	// FileName — имя файла без каталога, например "3228_9855.png".
	FileName string
	// FilePath — полный путь записанного файла. Пустой при неудаче.
	FilePath string
	// ByteSize — размер записанного файла в байтах. Ноль при неудаче.
	ByteSize int64
	// Error — текст ошибки при неудаче. Пустой при успехе.
	Error string
}

// DownloadImages выгружает отрендеренные изображения указанных узлов
// документа в каталог outputDir. Сначала одним батчевым проходом
// разрешаются подписанные URL всех узлов, затем сами файлы скачиваются
// через очередь с ограничением параллелизма и паузами между стартами.
//
// Возвращает по одной записи Outcome на каждый запрошенный узел в порядке
// запроса. Узлы без URL (неэкспортируемые) и узлы с ошибкой скачивания
// получают запись с Success=false; ошибка возвращается только когда
// провалился сам этап разрешения URL или подготовка каталога.
func (c *Client) DownloadImages(ctx context.Context, fileKey string, nodeIDs []string, outputDir string, opts ImageOptions) ([]Outcome, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	if c.tracer != nil {
		var span trace.Span
		ctx, span = c.tracer.StartSpan(ctx, "figma.images.download")
		defer span.End()

		span.SetAttributes(
			attribute.String("figma.file_key", fileKey),
			attribute.Int("figma.node_count", len(nodeIDs)),
			attribute.String("figma.format", string(opts.Format)),
		)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	// Этап разрешения фатален целиком: без URL скачивать нечего.
	urls, err := c.ImageURLs(ctx, fileKey, nodeIDs, opts)
	if err != nil {
		return nil, err
	}

	ids := CanonicalNodeIDs(nodeIDs)
	outcomes := make([]Outcome, len(ids))

	queue := NewTaskQueue(c.config.Queue, c.logger)
	defer queue.Close()

	done := make([]<-chan error, 0, len(ids))

	for i, id := range ids {
		outcomes[i] = Outcome{NodeID: id}

		imageURL, ok := urls[id]
		if !ok {
			// Figma вернула null: узел нельзя экспортировать в этом
			// формате. В очередь такой узел не попадает.
			outcomes[i].Error = "Cannot export"
			c.metrics.RecordDownload(ctx, DownloadResultFailed, 0)
			c.logger.Warn("node cannot be exported",
				zap.String("node_id", id),
				zap.String("format", string(opts.Format)),
			)
			continue
		}

		fileName := NodeFileName(id, opts.Format)
		filePath := filepath.Join(outputDir, fileName)

		i := i
		done = append(done, queue.Submit(func() error {
			if err := c.downloadFile(ctx, imageURL, filePath); err != nil {
				outcomes[i].Error = err.Error()
				c.metrics.RecordDownload(ctx, DownloadResultFailed, 0)
				c.logger.Warn("node download failed",
					zap.String("node_id", id),
					zap.Error(err),
				)
				return err
			}

			info, err := os.Stat(filePath)
			if err != nil {
				outcomes[i].Error = err.Error()
				c.metrics.RecordDownload(ctx, DownloadResultFailed, 0)
				return err
			}

			outcomes[i].Success = true
			outcomes[i].FileName = fileName
			outcomes[i].FilePath = filePath
			outcomes[i].ByteSize = info.Size()

			c.metrics.RecordDownload(ctx, DownloadResultOK, info.Size())
			c.logger.Info("node downloaded",
				zap.String("node_id", id),
				zap.String("file", fileName),
				zap.Int64("bytes", info.Size()),
			)
			return nil
		}))
	}

	// Ошибки отдельных узлов уже разложены по записям Outcome, здесь
	// каналы нужны только как сигнал завершения.
	for _, ch := range done {
		<-ch
	}

	return outcomes, nil
}

// downloadFile скачивает один подписанный URL в файл. Запрос идёт через ту же
// управляемую цепочку, что и вызовы API, но без учётных данных: подписанные
// URL хранилища не требуют токена. Файл создаётся только после проверки
// статуса ответа, чтобы неудачный ответ не оставлял пустой файл.
func (c *Client) downloadFile(ctx context.Context, imageURL, filePath string) error {
	resp, err := c.get(ctx, imageURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return NewHTTPError(resp)
	}

	if _, err := streamToFile(resp.Body, filePath); err != nil {
		return err
	}
	return nil
}

// FailedOutcomes возвращает записи с Success=false. Удобно для кода выхода
// CLI и итоговой сводки.
func FailedOutcomes(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, o := range outcomes {
		if !o.Success {
			failed = append(failed, o)
		}
	}
	return failed
}
