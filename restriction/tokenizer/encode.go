// The MIT License (MIT)

// Copyright (c) 2017-2020 Uber Technologies Inc.

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package tokenizer

import "encoding/binary"

// encodePair injectively encodes (acquirerID, resourceID) so that it can
// be HMAC-signed into a token: a length-prefixed concatenation of both
// strings. Length-prefixing, rather than a plain separator, is what
// makes this injective; without it, ("a", "bc") and ("ab", "c") would
// otherwise collide under naive concatenation.
func encodePair(acquirerID, resourceID string) []byte {
	buf := make([]byte, 0, 8+len(acquirerID)+len(resourceID))
	var lenBuf [4]byte

	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(acquirerID)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, acquirerID...)

	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(resourceID)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, resourceID...)

	return buf
}
