package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ivlev/slides2video/internal/config"
	"github.com/ivlev/slides2video/internal/deck"
	"github.com/ivlev/slides2video/internal/probe"
	"github.com/ivlev/slides2video/internal/render"
	"github.com/ivlev/slides2video/internal/resolver"
	"github.com/ivlev/slides2video/internal/speech"
	"github.com/ivlev/slides2video/internal/system"
	"github.com/ivlev/slides2video/internal/timeline"
	"github.com/ivlev/slides2video/internal/video"
)

// Текст финального слайда, если включен флаг -end-slide
const (
	endSlideTitle     = "Thank you for watching!"
	endSlideNarration = "Thanks for watching. See you in the next lecture."
)

type Project struct {
	Config  *config.Config
	Encoder video.Encoder
	Speech  *speech.Client
	tempDir string
}

func NewProject(cfg *config.Config, enc video.Encoder, sp *speech.Client) *Project {
	return &Project{
		Config:  cfg,
		Encoder: enc,
		Speech:  sp,
	}
}

func (p *Project) Run(ctx context.Context) error {
	startTime := time.Now()
	var resolveTime, synthTime, encodeTime, concatTime time.Duration

	var err error
	p.tempDir, err = os.MkdirTemp("", "slides2video_")
	if err != nil {
		return err
	}
	defer os.RemoveAll(p.tempDir)

	// 1. Читаем презентацию: порядок слайдов, заголовки, заметки
	pres, err := deck.Open(p.Config.InputPath)
	if err != nil {
		return fmt.Errorf("ошибка чтения презентации: %w", err)
	}
	slideCount := pres.SlideCount()
	if slideCount == 0 {
		return fmt.Errorf("презентация не содержит слайдов")
	}

	env := probe.ReadEnvironment()
	strategies := probe.Probe(p.Config)

	fmt.Println("--- [PROJECT: SLIDES2VIDEO] ---")
	fmt.Printf("[*] Презентация: %s | Слайдов: %d\n", p.Config.InputPath, slideCount)
	fmt.Printf("[*] Разрешение: %dx%d @ %d FPS | Голос: %s (%s)\n",
		p.Config.Width, p.Config.Height, p.Config.FPS, p.Config.Voice.Name, p.Config.Voice.Provider)
	fmt.Printf("[*] Окружение: %s/%s, %d CPU, %d MiB свободно\n",
		env.HostOS, env.Platform, env.CPUs, env.AvailableMiB)
	fmt.Printf("[*] Цепочка экспорта: %s\n", strategyNames(strategies))
	fmt.Println("-------------------------------")

	// 2. Разрешаем изображение для каждого слайда
	resolveStart := time.Now()
	resolved, report, err := resolver.New(strategies).Resolve(ctx, pres)
	resolveTime = time.Since(resolveStart)
	if err != nil {
		var unres *resolver.UnresolvedError
		if errors.As(err, &unres) {
			for _, f := range unres.Failures {
				fmt.Printf("[!] Слайд %d остался без изображения: %s\n", f.Index+1, strings.Join(f.Reasons, "; "))
			}
		}
		return fmt.Errorf("разрешение слайдов: %w", err)
	}

	narrations := deck.Narrations(pres)

	// Необязательный финальный слайд с QR-кодом
	if p.Config.EndSlide {
		card := render.Card{
			Title:  endSlideTitle,
			QRText: p.Config.EndSlideURL,
			Width:  p.Config.Width,
			Height: p.Config.Height,
		}
		img, err := card.Render()
		if err != nil {
			return fmt.Errorf("финальный слайд: %w", err)
		}
		resolved[slideCount] = resolver.Resolved{Image: img, Tier: resolver.TierTextFallback}
		narrations = append(narrations, endSlideNarration)
		slideCount++
	}

	// 3. Озвучка: все слайды уходят в синтез параллельно, дальше — барьер
	fmt.Printf("[*] Синтез озвучки (%d слайдов)...\n", slideCount)
	synthStart := time.Now()
	segments, err := p.Speech.SynthesizeAll(ctx, narrations)
	synthTime = time.Since(synthStart)
	if err != nil {
		return fmt.Errorf("синтез озвучки: %w", err)
	}

	// 4. Сборка таймлайна с точными смещениями
	tl, err := timeline.Assemble(resolved, segments,
		p.Config.PauseDuration, p.Config.MinVisibleDuration, p.Config.FPS)
	if err != nil {
		return err
	}
	fmt.Printf("[*] Таймлайн: %d сегментов, итого %s\n", len(tl.Segments), tl.Total.Round(time.Millisecond))

	// 5. Кодирование сегментов пулом воркеров.
	// Ограничиваем параллельные энкодеры, чтобы не перегрузить GPU/VRAM.
	encodeStart := time.Now()
	results := make([]string, len(tl.Segments))

	jobs := make(chan timeline.Segment, len(tl.Segments))
	numEncodeWorkers := 4
	if numEncodeWorkers > len(tl.Segments) {
		numEncodeWorkers = len(tl.Segments)
	}

	var wg sync.WaitGroup
	for w := 0; w < numEncodeWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for seg := range jobs {
				segPath := filepath.Join(p.tempDir, fmt.Sprintf("s%d.mp4", seg.SlideIndex))
				if err := p.Encoder.EncodeSegment(ctx, seg, segPath); err != nil {
					log.Printf("[!] Ошибка кодирования сегмента %d: %v", seg.SlideIndex+1, err)
					continue
				}
				results[seg.SlideIndex] = segPath
				fmt.Printf("[>] Готово: %d/%d\n", seg.SlideIndex+1, len(tl.Segments))
			}
		}()
	}

	for _, seg := range tl.Segments {
		jobs <- seg
	}
	close(jobs)
	wg.Wait()
	encodeTime = time.Since(encodeStart)

	for i, r := range results {
		if r == "" {
			return fmt.Errorf("сегмент %d не был создан. Проверьте логи FFmpeg", i+1)
		}
	}

	// 6. Склейка без перекодирования
	fmt.Println("[*] Сборка финального видео...")
	concatStart := time.Now()
	if err := p.Encoder.Concatenate(ctx, results, p.Config.OutputVideo, p.tempDir); err != nil {
		return fmt.Errorf("ошибка сборки финального видео: %w", err)
	}
	concatTime = time.Since(concatStart)

	// Сверяем фактическую длительность результата с таймлайном.
	// Недоступный ffprobe проверку не отменяет, только пропускает.
	if actual, err := system.GetAudioDuration(p.Config.OutputVideo); err == nil {
		planned := tl.Total.Seconds()
		if diff := actual - planned; diff > 0.5 || diff < -0.5 {
			fmt.Printf("[!] Длительность результата %.2fs расходится с таймлайном %.2fs\n", actual, planned)
		}
	}

	p.printWarnings(report, segments)

	if p.Config.ShowStats {
		p.printStats(slideCount, time.Since(startTime), resolveTime, synthTime, encodeTime, concatTime)
	}

	return nil
}

// printWarnings выводит сводку деградаций: слайды, ушедшие на нижние
// уровни экспорта, и слайды, оставшиеся без озвучки.
func (p *Project) printWarnings(report *resolver.Report, segments []speech.Segment) {
	for _, d := range report.Downgraded {
		fmt.Printf("[!] Слайд %d: изображение получено через %s (%s)\n",
			d.Index+1, d.Tier, strings.Join(d.Reasons, "; "))
	}

	fresh, cached, silent := 0, 0, 0
	for _, s := range segments {
		switch s.Tier {
		case speech.TierFresh:
			fresh++
		case speech.TierCached:
			cached++
		case speech.TierSilent:
			silent++
			fmt.Printf("[!] Слайд %d остался без озвучки: %v\n", s.SlideIndex+1, s.Err)
		}
	}
	fmt.Printf("[*] Озвучка: %d синтезировано, %d из кэша, %d без звука\n", fresh, cached, silent)
}

func (p *Project) printStats(slideCount int, total, resolve, synth, encode, concat time.Duration) {
	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Resolution: %.2fs\n"+
			"Synthesis: %.2fs\n"+
			"Encoding: %.2fs\n"+
			"Concatenation: %.2fs\n"+
			"Slides/sec: %.2f\n"+
			"----------------------------\n",
		p.Config.BuildVersion, total.Seconds(), resolve.Seconds(), synth.Seconds(),
		encode.Seconds(), concat.Seconds(), float64(slideCount)/total.Seconds(),
	)
	fmt.Print(report)

	// Логирование в файл
	logEntry := fmt.Sprintf("[%s] Build: %s | Input: %s | Slides: %d | Total: %.2fs | Synth: %.2fs | Encode: %.2fs\n",
		time.Now().Format("2006-01-02 15:04:05"),
		p.Config.BuildVersion,
		filepath.Base(p.Config.InputPath),
		slideCount,
		total.Seconds(),
		synth.Seconds(),
		encode.Seconds(),
	)

	f, err := os.OpenFile("benchmark.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		f.WriteString(logEntry)
		f.Close()
	} else {
		fmt.Printf("[!] Не удалось записать benchmark.log: %v\n", err)
	}
}

func strategyNames(strategies []resolver.Strategy) string {
	names := make([]string, len(strategies))
	for i, s := range strategies {
		names[i] = s.Name()
	}
	return strings.Join(names, " -> ")
}
