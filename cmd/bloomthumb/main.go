// Command bloomthumb generates a CPU-side Lanczos thumbnail from an
// image file.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"time"

	"github.com/nnmarcoo/bloom/media"
)

func main() {
	var (
		maxDim = flag.Int("max-dim", 256, "longest thumbnail edge in pixels")
		output = flag.String("output", "thumb.png", "output file")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: bloomthumb [flags] <image>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	var ids media.IDAllocator
	m, err := media.LoadMedia(&ids, flag.Arg(0), time.Now())
	if err != nil {
		log.Fatalf("Failed to load %s: %v", flag.Arg(0), err)
	}

	src := m.Image
	if src == nil && m.Animation != nil {
		src = m.Animation.CurrentImage()
	}
	if src == nil {
		log.Fatalf("No decodable frames in %s", flag.Arg(0))
	}

	thumb := media.ThumbnailData(&ids, src, *maxDim)

	out, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", *output, err)
	}
	defer out.Close()

	img := &image.RGBA{
		Pix:    thumb.Pixels,
		Stride: thumb.Width * 4,
		Rect:   image.Rect(0, 0, thumb.Width, thumb.Height),
	}
	if err := png.Encode(out, img); err != nil {
		log.Fatalf("Failed to encode: %v", err)
	}

	log.Printf("Thumbnail saved to %s (%dx%d)\n", *output, thumb.Width, thumb.Height)
}
