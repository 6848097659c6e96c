package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ivlev/slides2video/internal/config"
	"github.com/ivlev/slides2video/internal/engine"
	"github.com/ivlev/slides2video/internal/probe"
	"github.com/ivlev/slides2video/internal/speech"
	"github.com/ivlev/slides2video/internal/system"
	"github.com/ivlev/slides2video/internal/video"
	"github.com/ivlev/slides2video/internal/watch"
)

var buildVersion = "dev"

func main() {
	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()

	// Создаем нужные директории, если их нет
	dirs := []string{"input", "output", "uploaded_slides"}
	for _, d := range dirs {
		os.MkdirAll(d, 0755)
	}

	inputPtr := flag.String("input", "", "Путь к презентации (по умолчанию: самый свежий файл в input/)")
	outputPtr := flag.String("output", "", "Путь к видео (если пусто, генерируется автоматически в output/)")
	uploadedPtr := flag.String("uploaded", "uploaded_slides", "Папка с готовыми изображениями слайдов (slide_N.png)")
	widthPtr := flag.Int("width", 1920, "Ширина")
	heightPtr := flag.Int("height", 1080, "Высота")
	presetPtr := flag.String("preset", "", "Пресет формата: 16:9, 9:16 (Shorts/TikTok), 4:5 (Instagram)")
	fpsPtr := flag.Int("fps", 24, "FPS")
	workersPtr := flag.Int("workers", 0, "Параллельные запросы к синтезу речи (0 - авто)")
	dpiPtr := flag.Int("dpi", 150, "DPI рендеринга слайдов")
	pausePtr := flag.Duration("pause", 1500*time.Millisecond, "Пауза перед началом озвучки слайда (0 — без паузы)")
	minVisiblePtr := flag.Duration("min-visible", 3*time.Second, "Минимальное время показа слайда")
	retriesPtr := flag.Int("retries", 3, "Попытки синтеза на слайд")
	profilePtr := flag.String("voice-profile", "", "YAML-профиль голоса")
	providerPtr := flag.String("provider", "", "Провайдер синтеза: azure, gemini")
	voicePtr := flag.String("voice", "", "Имя голоса")
	languagePtr := flag.String("language", "", "Язык озвучки (например, en-US)")
	endSlidePtr := flag.Bool("end-slide", false, "Добавить финальный слайд с QR-кодом")
	endURLPtr := flag.String("end-slide-url", "", "Ссылка для QR-кода на финальном слайде")
	qualityPtr := flag.Int("quality", 0, "Качество видео (0 - авто, x264: CRF 1-51, VideoToolbox: битрейт = Q*100кбит/с)")
	statsPtr := flag.Bool("stats", false, "Показать отчет о производительности")
	watchPtr := flag.String("watch", "", "Следить за папкой и собирать видео для каждой новой презентации")

	flag.Parse()

	width, height := *widthPtr, *heightPtr
	switch *presetPtr {
	case "16:9":
		width, height = 1920, 1080
	case "9:16":
		width, height = 1080, 1920
	case "4:5":
		width, height = 1080, 1350
	}

	// Голос: профиль из YAML, поверх него — флаги
	voice := config.Voice{}
	if *profilePtr != "" {
		v, err := config.ReadVoiceProfile(*profilePtr)
		if err != nil {
			log.Fatalf("[-] Ошибка чтения профиля голоса: %v", err)
		}
		voice = *v
		fmt.Printf("[*] Профиль голоса: %s\n", *profilePtr)
	}
	if *providerPtr != "" {
		voice.Provider = *providerPtr
	}
	if *voicePtr != "" {
		voice.Name = *voicePtr
	}
	if *languagePtr != "" {
		voice.Language = *languagePtr
	}

	encoderName, _ := system.GetBestH264Encoder()
	if encoderName != "libx264" {
		fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", encoderName)
	}

	workers := *workersPtr
	if workers <= 0 {
		workers = probe.ReadEnvironment().SuggestWorkers()
	}

	quality := *qualityPtr
	if quality == 0 {
		switch encoderName {
		case "h264_videotoolbox":
			quality = 75 // Хорошее качество для VideoToolbox
		case "h264_nvenc":
			quality = 28 // Эквивалент CRF для NVENC
		default:
			quality = 23 // Стандартный CRF для x264
		}
	}

	cfg := &config.Config{
		OutputVideo:        *outputPtr,
		UploadedDir:        *uploadedPtr,
		Width:              width,
		Height:             height,
		FPS:                *fpsPtr,
		Workers:            workers,
		DPI:                *dpiPtr,
		PauseDuration:      *pausePtr,
		MinVisibleDuration: *minVisiblePtr,
		RetryAttempts:      *retriesPtr,
		Voice:              voice,
		EndSlide:           *endSlidePtr,
		EndSlideURL:        *endURLPtr,
		VideoEncoder:       encoderName,
		Quality:            quality,
		ShowStats:          *statsPtr,
		BuildVersion:       buildVersion,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Режим слежения: собираем видео для каждой новой презентации
	if *watchPtr != "" {
		w, err := watch.New(*watchPtr, func(ctx context.Context, deckPath string) error {
			return buildOne(ctx, cfg, deckPath, "")
		})
		if err != nil {
			log.Fatalf("[-] Ошибка слежения: %v", err)
		}
		defer w.Close()

		if err := w.Run(ctx); err != nil && err != context.Canceled {
			log.Fatalf("[-] Ошибка слежения: %v", err)
		}
		return
	}

	inputPath := *inputPtr
	if inputPath == "" {
		latest, err := system.FindLatestDeck("input")
		if err != nil {
			log.Fatalf("[-] Ошибка: %v. Положите презентацию в input/", err)
		}
		inputPath = latest
		fmt.Printf("[*] Выбран файл: %s\n", inputPath)
	}

	if err := buildOne(ctx, cfg, inputPath, *outputPtr); err != nil {
		log.Fatalf("[-] Ошибка проекта: %v", err)
	}
}

// buildOne собирает одно видео: копия конфига на прогон, чтобы режим
// слежения не накапливал состояние между презентациями.
func buildOne(ctx context.Context, base *config.Config, deckPath, outputPath string) error {
	cfg := *base
	cfg.InputPath = deckPath
	cfg.OutputVideo = outputPath
	if cfg.OutputVideo == "" {
		cfg.OutputVideo = autoOutputName(deckPath)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	creds, err := speech.LoadCredentials()
	if err != nil {
		return fmt.Errorf("учетные данные синтеза: %w", err)
	}
	synth, err := speech.NewSynthesizer(cfg.Voice, creds)
	if err != nil {
		return err
	}

	enc := &video.FFmpegEncoder{
		Width:       cfg.Width,
		Height:      cfg.Height,
		FPS:         cfg.FPS,
		EncoderName: cfg.VideoEncoder,
		Quality:     cfg.Quality,
	}

	project := engine.NewProject(&cfg, enc, speech.NewClient(synth, &cfg))
	if err := project.Run(ctx); err != nil {
		return err
	}

	fmt.Printf("[+++] Успех! Результат: %s\n", cfg.OutputVideo)
	return nil
}

func autoOutputName(deckPath string) string {
	baseName := filepath.Base(deckPath)
	nameOnly := strings.TrimSuffix(baseName, filepath.Ext(baseName))
	cleanName := strings.ReplaceAll(nameOnly, " ", "_")
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join("output", fmt.Sprintf("%s_%s.mp4", cleanName, timestamp))
}
