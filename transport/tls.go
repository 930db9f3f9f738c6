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
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/MonetDB/mapi-go/msettings"
)

// TLSOptions carries everything WrapTLS needs from validated settings,
// decoupling this package from msettings beyond the TLSVerify enum.
type TLSOptions struct {
	Verify         msettings.TLSVerify
	ServerName     string
	CAFile         string // used when Verify == VerifyCert
	CertHashDigits string // used when Verify == VerifyHash, lowercase hex, no colons
	ClientKeyFile  string
	ClientCertFile string
}

// WrapTLS wraps an already-connected socket in TLS, choosing the
// verification behavior named by opts.Verify:
//
//   - none:   certificates are not verified at all.
//   - system: the platform trust store is used (crypto/tls's default when
//     RootCAs is nil).
//   - cert:   a single CA file is trusted, no others.
//   - hash:   verification is disabled at the TLS layer; after the
//     handshake, the leaf certificate's SHA-256 fingerprint must match
//     opts.CertHashDigits.
//
// The connection is pinned to TLS 1.3 minimum, matching the reference
// implementation's SSL context configuration.
func WrapTLS(conn net.Conn, opts TLSOptions) (net.Conn, error) {
	cfg := &tls.Config{
		ServerName: opts.ServerName,
		MinVersion: tls.VersionTLS13,
	}

	switch opts.Verify {
	case msettings.VerifyNone:
		cfg.InsecureSkipVerify = true
	case msettings.VerifySystem:
		// leave cfg.RootCAs nil: crypto/tls consults the platform trust
		// store automatically.
	case msettings.VerifyCert:
		pool, err := loadCAFile(opts.CAFile)
		if err != nil {
			conn.Close()
			return nil, connectErrorf("tls-ca", err)
		}
		cfg.RootCAs = pool
	case msettings.VerifyHash:
		// Certificate-chain verification is meaningless when pinning a
		// specific leaf hash; the real check happens in the
		// VerifyPeerCertificate callback below.
		cfg.InsecureSkipVerify = true
		digits := strings.ToLower(opts.CertHashDigits)
		cfg.VerifyPeerCertificate = func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
			if len(rawCerts) == 0 {
				return fmt.Errorf("mapi: server presented no certificate")
			}
			sum := sha256.Sum256(rawCerts[0])
			hex := fmt.Sprintf("%x", sum[:])
			if !strings.HasPrefix(hex, digits) {
				return fmt.Errorf("mapi: server certificate hash %s does not match pinned prefix %s", hex, digits)
			}
			return nil
		}
	}

	if opts.ClientKeyFile != "" {
		certFile := opts.ClientCertFile
		if certFile == "" {
			certFile = opts.ClientKeyFile
		}
		cert, err := tls.LoadX509KeyPair(certFile, opts.ClientKeyFile)
		if err != nil {
			conn.Close()
			return nil, connectErrorf("tls-clientcert", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	tlsConn := tls.Client(conn, cfg)
	if err := tlsConn.Handshake(); err != nil {
		conn.Close()
		return nil, connectErrorf("tls-handshake", err)
	}
	return tlsConn, nil
}

func loadCAFile(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("no certificates found in %s", path)
	}
	return pool, nil
}
