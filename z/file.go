/*
 * Copyright 2020 Dgraph Labs, Inc. and Contributors
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

package z

import (
	"os"

	"github.com/pkg/errors"
)

// MmapFile is a read-only memory mapped file. Data stays valid until Close.
type MmapFile struct {
	Data []byte
	Fd   *os.File
}

// OpenMmapFile maps an existing file for reading.
func OpenMmapFile(filename string) (*MmapFile, error) {
	fd, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open: %s", filename)
	}
	fi, err := fd.Stat()
	if err != nil {
		fd.Close()
		return nil, errors.Wrapf(err, "cannot stat file: %s", filename)
	}
	mf := &MmapFile{Fd: fd}
	if fi.Size() == 0 {
		// Zero-length mappings are rejected by the kernel.
		return mf, nil
	}
	if mf.Data, err = mmap(fd, fi.Size()); err != nil {
		fd.Close()
		return nil, errors.Wrapf(err, "while mmapping %s with size: %d", filename, fi.Size())
	}
	if err := madvise(mf.Data); err != nil {
		mf.Close()
		return nil, errors.Wrapf(err, "while madvise %s", filename)
	}
	return mf, nil
}

// Close unmaps the data and closes the file.
func (m *MmapFile) Close() error {
	if m.Data != nil {
		if err := munmap(m.Data); err != nil {
			return errors.Wrapf(err, "while munmap file: %s", m.Fd.Name())
		}
		m.Data = nil
	}
	return m.Fd.Close()
}
