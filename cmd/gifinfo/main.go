package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v2"

	"github.com/playbackio/gifdec/gifdec"
)

type config struct {
	SampleSize int    `yaml:"sampleSize"`
	FrameLimit int    `yaml:"frameLimit"`
	DumpDir    string `yaml:"dumpDir"`
}

func main() {
	configPath := flag.String("config", "", "Optional YAML config file")
	sample := flag.Int("sample", 0, "Downsample factor, rounded down to a power of two")
	limit := flag.Int("limit", 0, "Limit number of frames to decode (0 = all)")
	dumpDir := flag.String("dump", "", "Directory to write composited frames as PNG")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: gifinfo [flags] file.gif ...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := config{SampleSize: 1}
	if *configPath != "" {
		readConfig(*configPath, &cfg)
	}
	// Flags take precedence over the config file.
	if *sample > 0 {
		cfg.SampleSize = *sample
	}
	if *limit > 0 {
		cfg.FrameLimit = *limit
	}
	if *dumpDir != "" {
		cfg.DumpDir = *dumpDir
	}
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = 1
	}

	failed := 0
	for _, path := range flag.Args() {
		if err := inspect(path, cfg); err != nil {
			log.Printf("%s: %v", path, err)
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func readConfig(path string, cfg *config) {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		log.Fatalf("config: %v", err)
	}
}

func inspect(path string, cfg config) error {
	src, err := gifdec.OpenFileSource(path)
	if err != nil {
		return err
	}

	header, err := gifdec.ParseHeader(src)
	if err != nil {
		src.Close()
		return err
	}

	provider := gifdec.NewPoolProvider()
	dec, err := gifdec.NewDecoder(provider, header, src, cfg.SampleSize)
	if err != nil {
		src.Close()
		return err
	}
	defer dec.Close()

	fmt.Printf("%s: %dx%d, %d frames, loop=%s\n",
		path, dec.Width(), dec.Height(), dec.FrameCount(), loopString(dec.LoopCount()))

	count := dec.FrameCount()
	if cfg.FrameLimit > 0 && cfg.FrameLimit < count {
		count = cfg.FrameLimit
	}
	for i := 0; i < count; i++ {
		dec.Advance()
		frame, err := dec.NextFrame()
		if err != nil {
			return err
		}
		fmt.Printf("  frame %3d: delay=%dms dispose=%s status=%s avg=%s\n",
			i, dec.Delay(i), disposalName(header.Frames[i].Disposal),
			dec.Status(), averageHex(frame))
		if cfg.DumpDir != "" {
			if err := dumpPNG(cfg.DumpDir, path, i, frame); err != nil {
				provider.ReleasePixels(frame)
				return err
			}
		}
		provider.ReleasePixels(frame)
	}
	return nil
}

func loopString(n int) string {
	if n == 0 {
		return "forever"
	}
	return fmt.Sprintf("%d", n)
}

func disposalName(d int) string {
	switch d {
	case gifdec.DisposalUnspecified:
		return "unspecified"
	case gifdec.DisposalNone:
		return "none"
	case gifdec.DisposalBackground:
		return "background"
	case gifdec.DisposalPrevious:
		return "previous"
	default:
		return fmt.Sprintf("invalid(%d)", d)
	}
}

// averageHex reports the mean opaque color of a frame as an RGB hex
// string, or "transparent" if nothing is visible.
func averageHex(frame *gifdec.PixelBuffer) string {
	var rSum, gSum, bSum, n uint64
	for _, c := range frame.Pix {
		if c>>24 == 0 {
			continue
		}
		rSum += uint64(c >> 16 & 0xff)
		gSum += uint64(c >> 8 & 0xff)
		bSum += uint64(c & 0xff)
		n++
	}
	if n == 0 {
		return "transparent"
	}
	mean := colorful.Color{
		R: float64(rSum/n) / 255,
		G: float64(gSum/n) / 255,
		B: float64(bSum/n) / 255,
	}
	return mean.Hex()
}

func dumpPNG(dir, srcPath string, index int, frame *gifdec.PixelBuffer) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	img := image.NewRGBA(image.Rect(0, 0, frame.W, frame.H))
	for y := 0; y < frame.H; y++ {
		for x := 0; x < frame.W; x++ {
			c := frame.Pix[y*frame.W+x]
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(c >> 16),
				G: uint8(c >> 8),
				B: uint8(c),
				A: uint8(c >> 24),
			})
		}
	}
	base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	out, err := os.Create(filepath.Join(dir, fmt.Sprintf("%s_%03d.png", base, index)))
	if err != nil {
		return err
	}
	defer out.Close()
	return png.Encode(out, img)
}
