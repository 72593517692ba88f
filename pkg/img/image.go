// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package img

import (
	"errors"
	"io"
)

// ErrEmptyImage is returned when opening a zero-length image.
var ErrEmptyImage = errors.New("empty image")

// Image is a byte-addressable disk image of known size.
type Image interface {
	io.ReaderAt
	Size() int64
}

type sizedReader struct {
	io.ReaderAt
	size int64
}

func (r *sizedReader) Size() int64 {
	return r.size
}

// WithSize wraps r so that it reports size bytes, whatever the amount of data
// r actually holds. Reads past the data of r fail as they would on r.
func WithSize(r io.ReaderAt, size int64) Image {
	return &sizedReader{ReaderAt: r, size: size}
}
