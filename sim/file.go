/*
 * Copyright 2024 Dgraph Labs, Inc. and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package sim

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/pkg/errors"

	"github.com/dgraph-io/clairvoyant/z"
)

var gzipMagic = []byte{0x1f, 0x8b}

// File is a trace file opened for simulation. Close releases the mapping,
// after which the Simulator must not be used.
type File struct {
	Simulator
	mf *z.MmapFile
}

// Open memory maps the trace at path and returns a Simulator parsing it with
// parser. Gzip compressed traces are detected by their magic number and
// decompressed on the fly.
func Open(path string, parser Parser) (*File, error) {
	mf, err := z.OpenMmapFile(path)
	if err != nil {
		return nil, err
	}
	var r io.Reader = bytes.NewReader(mf.Data)
	if bytes.HasPrefix(mf.Data, gzipMagic) {
		gz, err := gzip.NewReader(r)
		if err != nil {
			mf.Close()
			return nil, errors.Wrapf(err, "while opening gzip trace %s", path)
		}
		r = gz
	}
	return &File{
		Simulator: NewReader(parser, r),
		mf:        mf,
	}, nil
}

// Close unmaps the trace file.
func (f *File) Close() error {
	return f.mf.Close()
}
