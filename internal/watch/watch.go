package watch

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ivlev/slides2video/internal/system"
)

// Handler обрабатывает появившуюся презентацию.
type Handler func(ctx context.Context, deckPath string) error

// Watcher следит за папкой и запускает сборку видео для каждой новой
// презентации. Сборки идут последовательно: один прогон и так занимает
// все ядра и энкодер.
type Watcher struct {
	dir     string
	handler Handler
	watcher *fsnotify.Watcher
	settle  time.Duration
}

func New(dir string, handler Handler) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	return &Watcher{
		dir:     dir,
		handler: handler,
		watcher: fsw,
		settle:  500 * time.Millisecond,
	}, nil
}

func (w *Watcher) Run(ctx context.Context) error {
	fmt.Printf("[*] Слежение за папкой: %s (pptx/ppt/key/odp)\n", w.dir)

	for {
		select {
		case <-ctx.Done():
			fmt.Println("[*] Слежение остановлено")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Op&fsnotify.Create != fsnotify.Create {
				continue
			}
			if !system.IsDeckFile(event.Name) {
				continue
			}

			fmt.Printf("[*] Новая презентация: %s\n", event.Name)

			// Даем файлу дозаписаться
			time.Sleep(w.settle)

			if err := w.handler(ctx, event.Name); err != nil {
				log.Printf("[!] Ошибка обработки %s: %v", event.Name, err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			log.Printf("[!] Ошибка слежения: %v", err)
		}
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
