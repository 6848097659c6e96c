package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ivlev/slides2video/internal/system"
	"github.com/ivlev/slides2video/internal/timeline"
)

type Encoder interface {
	EncodeSegment(ctx context.Context, seg timeline.Segment, videoPath string) error
	Concatenate(ctx context.Context, segmentPaths []string, finalPath string, tmpDir string) error
}

// FFmpegEncoder собирает каждый сегмент отдельным вызовом ffmpeg:
// кадр слайда уходит в stdin как raw RGBA, озвучка — вторым входом.
type FFmpegEncoder struct {
	Width       int
	Height      int
	FPS         int
	EncoderName string
	Quality     int
}

func (e *FFmpegEncoder) EncodeSegment(ctx context.Context, seg timeline.Segment, videoPath string) error {
	img := seg.Image
	inputW, inputH := img.Bounds().Dx(), img.Bounds().Dy()

	// Озвучка подаётся из временного WAV рядом с сегментом
	audioPath := ""
	if !seg.Silent() {
		audioPath = videoPath + ".wav"
		if err := os.WriteFile(audioPath, seg.Audio, 0o644); err != nil {
			return fmt.Errorf("write narration wav: %w", err)
		}
		defer os.Remove(audioPath)
	}

	args := e.buildSegmentArgs(inputW, inputH, seg, audioPath, videoPath)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	// Запись raw RGBA данных
	if err := e.writeRawRGBA(stdin, img); err != nil {
		stdin.Close()
		cmd.Wait()
		return fmt.Errorf("write raw error: %w", err)
	}
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %v, output: %s", err, stderr.String())
	}

	return nil
}

func (e *FFmpegEncoder) buildSegmentArgs(inputW, inputH int, seg timeline.Segment, audioPath, videoPath string) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", inputW, inputH),
		"-i", "-",
	}

	if audioPath != "" {
		args = append(args, "-i", audioPath)
	} else {
		// Нет озвучки — тишина на всю длину сегмента
		args = append(args,
			"-f", "lavfi",
			"-t", seconds(seg.Duration),
			"-i", "anullsrc=r=24000:cl=mono",
		)
	}

	args = append(args, "-vf", e.videoFilter(seg))

	if audioPath != "" {
		// Пауза перед началом речи + добивка тишиной до конца сегмента
		delayMs := seg.NarrationOffset.Milliseconds()
		args = append(args, "-af", fmt.Sprintf("adelay=%d:all=1,apad", delayMs))
	}

	args = append(args,
		"-t", seconds(seg.Duration),
		"-r", strconv.Itoa(e.FPS),
		"-pix_fmt", "yuv420p",
		"-c:v", e.EncoderName,
	)

	// Качество в зависимости от энкодера
	switch e.EncoderName {
	case "h264_videotoolbox":
		bitrate := e.Quality * 100
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", strconv.Itoa(e.Quality))
	default: // libx264
		args = append(args, "-crf", strconv.Itoa(e.Quality), "-preset", "medium")
	}

	args = append(args, "-c:a", "aac", "-b:a", "192k", videoPath)
	return args
}

// videoFilter вписывает слайд в целевой кадр с сохранением пропорций
// (белые поля по краям) и растягивает один кадр на всю длину сегмента.
func (e *FFmpegEncoder) videoFilter(seg timeline.Segment) string {
	frames := seg.FrameCount(e.FPS)
	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,"+
			"pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=white,"+
			"zoompan=z='1.0':d=%d:s=%dx%d:fps=%d",
		e.Width, e.Height,
		e.Width, e.Height,
		frames, e.Width, e.Height, e.FPS,
	)
}

func (e *FFmpegEncoder) writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		canvas := system.GetFrame(bounds.Dx(), bounds.Dy())
		defer system.PutFrame(canvas)
		draw.Draw(canvas, canvas.Bounds(), img, bounds.Min, draw.Src)
		rgba = canvas
	}
	_, err := w.Write(rgba.Pix)
	return err
}

// Concatenate склеивает готовые сегменты demuxer-ом concat без
// перекодирования: стыки сегментов и так лежат на границах кадров.
func (e *FFmpegEncoder) Concatenate(ctx context.Context, segmentPaths []string, finalPath string, tmpDir string) error {
	concatFilePath := filepath.Join(tmpDir, "inputs.txt")
	f, err := os.Create(concatFilePath)
	if err != nil {
		return err
	}
	for _, p := range segmentPaths {
		absPath, _ := filepath.Abs(p)
		fmt.Fprintf(f, "file '%s'\n", absPath)
	}
	f.Close()

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "concat", "-safe", "0", "-i", concatFilePath,
		"-c", "copy", finalPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg concat error: %v, output: %s", err, string(out))
	}
	return nil
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 6, 64)
}
