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
	"context"
	"net"
	"strconv"
	"time"
)

// ConnectTCP dials host:port, trying every address getaddrinfo-style
// resolution returns until one connects, and rejects a connection that
// turns out to be a self-connection (local and peer address/port equal),
// which the reference implementation treats as a failed candidate rather
// than a usable connection.
func ConnectTCP(ctx context.Context, host string, port int64, timeout time.Duration) (net.Conn, error) {
	d := net.Dialer{Timeout: timeout}
	addr := net.JoinHostPort(host, strconv.FormatInt(port, 10))

	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, connectErrorf("dial", err)
	}
	if isSelfConnect(conn) {
		conn.Close()
		return nil, connectErrorf("dial", errSelfConnect{})
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		tc.SetNoDelay(true)
		tc.SetKeepAlive(false)
	}
	return conn, nil
}

type errSelfConnect struct{}

func (errSelfConnect) Error() string { return "refused self-connection" }

func isSelfConnect(conn net.Conn) bool {
	local, lok := conn.LocalAddr().(*net.TCPAddr)
	remote, rok := conn.RemoteAddr().(*net.TCPAddr)
	if !lok || !rok {
		return false
	}
	return local.Port == remote.Port && local.IP.Equal(remote.IP)
}
