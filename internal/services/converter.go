package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/desertthunder/readerprint/internal/shared"
)

const defaultRenderTimeout = 2 * time.Minute

// NewPageRenderer builds the renderer selected by cfg.Renderer.
func NewPageRenderer(cfg shared.ConverterConfig, cmd shared.Commander, logger *log.Logger) (PageRenderer, error) {
	switch cfg.Renderer {
	case "", "percollate":
		return NewPercollateRenderer(cfg, cmd, logger)
	case "chrome":
		return NewChromeRenderer(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: unknown renderer %q", shared.ErrInvalidConfig, cfg.Renderer)
	}
}

// PercollateRenderer converts webpages with the percollate CLI.
type PercollateRenderer struct {
	cmd      shared.Commander
	command  []string
	pageSize string
	logger   *log.Logger
}

// NewPercollateRenderer creates a renderer that runs cfg.Command (e.g. ["percollate"] or ["bunx", "percollate"]).
func NewPercollateRenderer(cfg shared.ConverterConfig, cmd shared.Commander, logger *log.Logger) (*PercollateRenderer, error) {
	if len(cfg.Command) == 0 || cfg.Command[0] == "" {
		return nil, fmt.Errorf("%w: converter command is empty", shared.ErrInvalidConfig)
	}
	if cmd == nil {
		cmd = shared.ExecCommander{}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	pageSize := cfg.PageSize
	if pageSize == "" {
		pageSize = "letter"
	}

	return &PercollateRenderer{
		cmd:      cmd,
		command:  cfg.Command,
		pageSize: pageSize,
		logger:   shared.WithLogger(logger, "renderer", "percollate"),
	}, nil
}

func (r *PercollateRenderer) Name() string { return "percollate" }

// Args returns the argument list passed after the executable.
func (r *PercollateRenderer) Args(url, outPath string) []string {
	args := append([]string{}, r.command[1:]...)
	return append(args,
		"pdf",
		"--css", fmt.Sprintf("@page { size: %s }", r.pageSize),
		"--output", outPath,
		url,
	)
}

// Render runs percollate to completion, streaming its output to the logger.
// A non-zero exit is a [*shared.ExitError] of kind [shared.ErrConversionFailed].
func (r *PercollateRenderer) Render(ctx context.Context, url, outPath string) error {
	w := shared.NewLogWriter(r.logger, "url", url)
	err := r.cmd.Stream(ctx, w, r.command[0], r.Args(url, outPath)...)
	w.Flush()

	if err != nil {
		if code := shared.ExitCode(err); code >= 0 {
			return &shared.ExitError{Kind: shared.ErrConversionFailed, Command: r.command[0], Code: code}
		}
		return fmt.Errorf("%w: %v", shared.ErrConversionFailed, err)
	}
	return checkOutput(outPath)
}

// ChromeRenderer prints webpages to PDF through the Chrome DevTools Protocol.
//
// With ChromeURL set it attaches to a running browser, otherwise it launches a headless one.
type ChromeRenderer struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	paperWidth  float64
	paperHeight float64
	timeout     time.Duration
	logger      *log.Logger
}

// NewChromeRenderer creates the browser allocator. Call Close to release it.
func NewChromeRenderer(cfg shared.ConverterConfig, logger *log.Logger) (*ChromeRenderer, error) {
	width, height, ok := PaperSize(cfg.PageSize)
	if !ok {
		return nil, fmt.Errorf("%w: unknown page size %q", shared.ErrInvalidConfig, cfg.PageSize)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = defaultRenderTimeout
	}

	r := &ChromeRenderer{
		paperWidth:  width,
		paperHeight: height,
		timeout:     timeout,
		logger:      shared.WithLogger(logger, "renderer", "chrome"),
	}

	if cfg.ChromeURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.ChromeURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-extensions", true),
			chromedp.Flag("no-first-run", true),
		)
		r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	}
	return r, nil
}

func (r *ChromeRenderer) Name() string { return "chrome" }

// Render navigates to url, waits for the body and writes the printed PDF to outPath.
func (r *ChromeRenderer) Render(ctx context.Context, url, outPath string) error {
	browserCtx, cancelBrowser := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			r.logger.Debugf(format, args...)
		}),
	)
	defer cancelBrowser()

	runCtx, cancel := context.WithTimeout(browserCtx, r.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var pdf []byte
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(r.paperWidth).
				WithPaperHeight(r.paperHeight).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: rendering %s timed out after %v", shared.ErrConversionFailed, url, r.timeout)
		}
		return fmt.Errorf("%w: %v", shared.ErrConversionFailed, err)
	}

	if len(pdf) == 0 {
		return fmt.Errorf("%w: chrome produced an empty PDF for %s", shared.ErrConversionFailed, url)
	}
	if err := os.WriteFile(outPath, pdf, 0600); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrConversionFailed, err)
	}
	r.logger.Info("rendered page", "url", url, "bytes", len(pdf))
	return nil
}

// Close shuts down the browser allocator.
func (r *ChromeRenderer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

// PaperSize returns the width and height in inches for a CSS page size name.
func PaperSize(name string) (width, height float64, ok bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "letter":
		return 8.5, 11, true
	case "legal":
		return 8.5, 14, true
	case "a3":
		return 11.69, 16.54, true
	case "a4":
		return 8.27, 11.69, true
	case "a5":
		return 5.83, 8.27, true
	default:
		return 0, 0, false
	}
}

func checkOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: no output written: %v", shared.ErrConversionFailed, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: output %s is empty", shared.ErrConversionFailed, path)
	}
	return nil
}
