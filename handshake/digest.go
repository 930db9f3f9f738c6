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

// Package handshake implements the MAPI version-9 challenge/response login
// sequence: parsing the server's challenge line, picking a mutually
// supported digest algorithm, hashing the password, building the reply, and
// walking the welcome/redirect result that follows.
package handshake

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/ripemd160"
)

// digestPreference is the strongest-first algorithm order the client tries
// against the server's advertised hashlist.
var digestPreference = []string{"RIPEMD160", "SHA512", "SHA384", "SHA256", "SHA224", "SHA1"}

func newDigest(algo string) (hash.Hash, bool) {
	switch algo {
	case "RIPEMD160":
		return ripemd160.New(), true
	case "SHA512":
		return sha512.New(), true
	case "SHA384":
		return sha512.New384(), true
	case "SHA256":
		return sha256.New(), true
	case "SHA224":
		return sha256.New224(), true
	case "SHA1":
		return sha1.New(), true
	case "MD5":
		return md5.New(), true
	default:
		return nil, false
	}
}

// Digest hashes data with the named algorithm and returns the lowercase hex
// digest.
func Digest(algo string, data []byte) (string, error) {
	h, ok := newDigest(algo)
	if !ok {
		return "", fmt.Errorf("mapi: unsupported digest algorithm %q", algo)
	}
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashPassword computes the challenge-response hash: the digest of
// password||challenge under algo, hex-encoded. Password and challenge are
// concatenated, not separately hashed and combined.
func HashPassword(algo, password, challenge string) (string, error) {
	h, ok := newDigest(algo)
	if !ok {
		return "", fmt.Errorf("mapi: unsupported digest algorithm %q", algo)
	}
	h.Write([]byte(password))
	h.Write([]byte(challenge))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// pickAlgorithm returns the strongest algorithm from digestPreference that
// also appears in the comma-separated hashlist the server advertised.
func pickAlgorithm(hashlist string) (string, error) {
	offered := make(map[string]bool)
	for _, h := range strings.Split(hashlist, ",") {
		h = strings.TrimSpace(h)
		if h != "" {
			offered[h] = true
		}
	}
	for _, alg := range digestPreference {
		if offered[alg] {
			return alg, nil
		}
	}
	return "", fmt.Errorf("mapi: no mutually supported hash algorithm in %q", hashlist)
}
