/**
* Copyright 2020 MonetDB Solutions B.V.
* Licensed under the Apache License, Version 2.0 (the "License");
* you may not use this file except in compliance with the License.
* You may obtain a copy of the License at
* http://www.apache.org/licenses/LICENSE-2.0
* Unless required by applicable law or agreed to in writing, software
* distributed under the License is distributed on an "AS IS" BASIS,
* WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
* See the License for the specific language governing permissions and
* limitations under the License.
 */

package transport

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"
)

const maxScanCandidates = 24

var sockNameRE = regexp.MustCompile(`^\.s\.monetdb\.(\d+)$`)

// ScanCandidate is one entry discovered by ScanUnixSockets: a MAPI Unix
// socket path together with the port it represents (derived from the
// socket's filename) and whether the scanning process owns it.
type ScanCandidate struct {
	Path string
	Port int
	Ours bool
}

// ScanUnixSockets lists MAPI Unix-domain sockets under sockdir matching
// .s.monetdb.<port>, 1 <= port <= 65535, capped at maxScanCandidates entries
// and partitioned so that sockets owned by the current process's UID sort
// before everyone else's.
func ScanUnixSockets(sockdir string) ([]ScanCandidate, error) {
	entries, err := os.ReadDir(sockdir)
	if err != nil {
		return nil, connectErrorf("scan", err)
	}

	myUID := os.Getuid()
	var candidates []ScanCandidate
	for _, entry := range entries {
		if len(candidates) >= maxScanCandidates {
			break
		}
		m := sockNameRE.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		port, err := strconv.Atoi(m[1])
		if err != nil || port < 1 || port > 65535 {
			continue
		}
		full := filepath.Join(sockdir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.Mode()&os.ModeSocket == 0 {
			continue
		}
		ours := fileOwnerUID(info) == myUID
		candidates = append(candidates, ScanCandidate{Path: full, Port: port, Ours: ours})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Ours && !candidates[j].Ours
	})
	return candidates, nil
}

// ConnectUnix dials the Unix-domain socket at path the way the MAPI C client
// does: PF_UNIX/SOCK_STREAM with CLOEXEC, connect, then a single literal
// byte '0' (not NUL) signalling that no file descriptor is being passed.
func ConnectUnix(path string) (net.Conn, error) {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, connectErrorf("socket", err)
	}
	sa := &unix.SockaddrUnix{Name: path}
	if err := unix.Connect(fd, sa); err != nil {
		unix.Close(fd)
		return nil, connectErrorf("connect", err)
	}
	if _, err := unix.Write(fd, []byte{'0'}); err != nil {
		unix.Close(fd)
		return nil, connectErrorf("handshake-preamble", err)
	}
	f := os.NewFile(uintptr(fd), path)
	conn, err := net.FileConn(f)
	f.Close()
	if err != nil {
		return nil, connectErrorf("fileconn", err)
	}
	return conn, nil
}

func fileOwnerUID(info os.FileInfo) int {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return int(st.Uid)
	}
	return -1
}

// DefaultSocketPath returns the canonical Unix socket path for a given
// sockdir/port pair, matching Settings.ConnectUnix's derivation.
func DefaultSocketPath(sockdir string, port int64) string {
	return fmt.Sprintf("%s/.s.monetdb.%d", sockdir, port)
}
