package gifdec

// setPixels builds the output for currentFrame: prepares the composite
// canvas according to previousFrame's disposal method, decompresses the
// frame's index pixels, then downsamples them into the canvas at the
// frame's rectangle.
func (d *Decoder) setPixels(currentFrame, previousFrame *Frame, act []uint32, transIndex int, bgColor uint32) (*PixelBuffer, error) {
	// Final location of blended pixels.
	dest := d.mainScratch

	// Fill in the starting canvas from the previous frame's dispose
	// code. Nothing to do for DisposalNone: the canvas already holds
	// the previous frame's pixels.
	if previousFrame != nil && previousFrame.Disposal > DisposalUnspecified {
		if previousFrame.Disposal == DisposalBackground {
			// Start with a canvas filled with the background color,
			// or fully transparent when this frame itself carries
			// transparency.
			var c uint32
			if !currentFrame.Transparency {
				c = bgColor
			} else if d.framePointer == 0 {
				d.firstFrameTransparent = true
			}
			for i := range dest {
				dest[i] = c
			}
		} else if previousFrame.Disposal == DisposalPrevious && d.previousImage != nil {
			// Start with the retained canvas.
			d.previousImage.CopyTo(dest)
		}
	}

	// Decode this frame's index pixels into the full-resolution scratch,
	// growing it if the frame rectangle outgrew the logical screen.
	npix := currentFrame.IW * currentFrame.IH
	if npix > len(d.mainPixels) {
		d.mainPixels = growBytes(d.mainPixels, npix)
	}
	st, err := d.lzw.decode(d.reader, currentFrame, npix, d.mainPixels)
	if err != nil {
		if de, ok := IsDecodeError(err); ok {
			d.status = de.Status
		} else {
			d.status = StatusReadError
		}
		return nil, err
	}
	if st != StatusOK {
		d.status = st
	}

	downsampledIH := currentFrame.IH / d.sampleSize
	downsampledIY := currentFrame.IY / d.sampleSize
	downsampledIW := currentFrame.IW / d.sampleSize
	downsampledIX := currentFrame.IX / d.sampleSize

	// Copy each source line to the right place in the destination,
	// following the four interlace passes when the frame is interlaced.
	pass := 1
	inc := 8
	iline := 0
	isFirstFrame := d.framePointer == 0
	for i := 0; i < downsampledIH; i++ {
		line := i
		if currentFrame.Interlace {
			if iline >= downsampledIH {
				pass++
				switch pass {
				case 2:
					iline = 4
				case 3:
					iline = 2
					inc = 4
				case 4:
					iline = 1
					inc = 2
				}
			}
			line = iline
			iline += inc
		}
		line += downsampledIY
		if line >= d.downsampledHeight {
			continue
		}
		// Start of line in dest.
		k := line * d.downsampledWidth
		dx := k + downsampledIX
		// End of dest line, clipped to the dest edge.
		dlim := dx + downsampledIW
		if k+d.downsampledWidth < dlim {
			dlim = k + d.downsampledWidth
		}
		// Start of line in source.
		sx := i * d.sampleSize * currentFrame.IW
		maxInRow := sx + (dlim-dx)*d.sampleSize
		for dx < dlim {
			averageColor := d.averageColorsNear(act, transIndex, sx, maxInRow, currentFrame.IW, npix)
			if averageColor != 0 {
				dest[dx] = averageColor
			} else if isFirstFrame && !d.firstFrameTransparent {
				d.firstFrameTransparent = true
			}
			sx += d.sampleSize
			dx++
		}
	}

	// Retain the canvas if a later frame will restore to it.
	if d.savePrevious && (currentFrame.Disposal == DisposalUnspecified || currentFrame.Disposal == DisposalNone) {
		if d.previousImage == nil {
			d.previousImage = d.provider.ObtainPixels(d.downsampledWidth, d.downsampledHeight)
		}
		d.previousImage.CopyFrom(dest)
	}

	result := d.provider.ObtainPixels(d.downsampledWidth, d.downsampledHeight)
	result.CopyFrom(dest)
	return result, nil
}

// averageColorsNear resolves one output pixel by averaging the channels
// of the non-transparent source pixels in a sampleSize-wide window over
// the current row and the row below it. Sampling two rows instead of a
// full sampleSize-square box trades a little fidelity for speed. Returns
// 0 when every contributing pixel is transparent.
func (d *Decoder) averageColorsNear(act []uint32, transIndex, pos, maxInRow, frameWidth, npix int) uint32 {
	var alphaSum, redSum, greenSum, blueSum, totalAdded int

	accumulate := func(start, limit int) {
		for i := start; i < start+d.sampleSize && i < npix && i < limit; i++ {
			currentColorIndex := int(d.mainPixels[i])
			if currentColorIndex == transIndex || currentColorIndex >= len(act) {
				continue
			}
			currentColor := act[currentColorIndex]
			if currentColor == 0 {
				continue
			}
			alphaSum += int(currentColor >> 24 & 0xff)
			redSum += int(currentColor >> 16 & 0xff)
			greenSum += int(currentColor >> 8 & 0xff)
			blueSum += int(currentColor & 0xff)
			totalAdded++
		}
	}

	// Pixels in the current row, then the same window one row down.
	accumulate(pos, maxInRow)
	accumulate(pos+frameWidth, maxInRow+frameWidth)

	if totalAdded == 0 {
		return 0
	}
	return uint32(alphaSum/totalAdded)<<24 |
		uint32(redSum/totalAdded)<<16 |
		uint32(greenSum/totalAdded)<<8 |
		uint32(blueSum/totalAdded)
}
