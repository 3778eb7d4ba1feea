// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfdoc

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rc4"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/charmap"
)

// ErrInvalidPassword is returned when neither the user nor the owner
// password of an encrypted document matches.
var ErrInvalidPassword = errors.New("encrypted PDF: invalid password")

// ErrUnsupportedEncryption is returned for security handlers other than
// the Standard one or for unknown revisions.
var ErrUnsupportedEncryption = errors.New("unsupported PDF encryption")

var passwordPad = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41, 0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80, 0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

type cipherKind int

const (
	cipherIdentity cipherKind = iota
	cipherRC4
	cipherAESV2
	cipherAESV3
)

// A decrypter holds the file key of an authenticated document.
type decrypter struct {
	key  []byte
	kind cipherKind
}

// securityHandler is the parsed /Encrypt dictionary of the Standard handler.
type securityHandler struct {
	V, R      int64
	keyLen    int // bytes
	O, U      []byte
	OE, UE    []byte
	P         uint32
	ID        []byte
	kind      cipherKind
	encryptMD bool
}

func newSecurityHandler(encrypt dict, trailer dict) (*securityHandler, error) {
	if encrypt["Filter"] != name("Standard") {
		return nil, fmt.Errorf("%w: filter %v", ErrUnsupportedEncryption, objfmt(encrypt["Filter"]))
	}
	h := &securityHandler{encryptMD: true}
	h.V, _ = encrypt["V"].(int64)
	h.R, _ = encrypt["R"].(int64)
	if h.R < 2 || h.R > 6 {
		return nil, fmt.Errorf("%w: revision R=%d", ErrUnsupportedEncryption, h.R)
	}
	n, _ := encrypt["Length"].(int64)
	if n == 0 {
		n = 40
	}
	if n%8 != 0 || n < 40 || n > 256 {
		return nil, fmt.Errorf("malformed PDF: %d-bit encryption key", n)
	}
	h.keyLen = int(n / 8)
	if h.R == 2 {
		h.keyLen = 5
	}

	O, _ := encrypt["O"].(string)
	U, _ := encrypt["U"].(string)
	h.O, h.U = []byte(O), []byte(U)
	p, _ := encrypt["P"].(int64)
	h.P = uint32(p)
	if b, ok := encrypt["EncryptMetadata"].(bool); ok {
		h.encryptMD = b
	}

	switch h.V {
	case 1, 2:
		h.kind = cipherRC4
	case 4:
		h.kind = cipherRC4
		stmf, _ := encrypt["StmF"].(name)
		if stmf == "" || stmf == "Identity" {
			h.kind = cipherIdentity
			break
		}
		cf, _ := encrypt["CF"].(dict)
		param, _ := cf[stmf].(dict)
		switch param["CFM"] {
		case name("AESV2"):
			h.kind = cipherAESV2
			h.keyLen = 16
		case name("None"):
			h.kind = cipherIdentity
		}
	case 5:
		h.kind = cipherAESV3
		h.keyLen = 32
		OE, _ := encrypt["OE"].(string)
		UE, _ := encrypt["UE"].(string)
		h.OE, h.UE = []byte(OE), []byte(UE)
		if len(h.O) < 48 || len(h.U) < 48 || len(h.OE) != 32 || len(h.UE) != 32 {
			return nil, errors.New("malformed PDF: bad O/U/OE/UE encryption parameters")
		}
		return h, nil
	default:
		return nil, fmt.Errorf("%w: version V=%d", ErrUnsupportedEncryption, h.V)
	}

	if len(h.O) < 32 || len(h.U) < 32 {
		return nil, errors.New("malformed PDF: missing O= or U= encryption parameters")
	}
	h.O, h.U = h.O[:32], h.U[:32]
	ids, _ := trailer["ID"].(array)
	if len(ids) > 0 {
		id, _ := ids[0].(string)
		h.ID = []byte(id)
	}
	return h, nil
}

// authenticate tries password first as the user password and then as
// the owner password. It returns the file decrypter on success.
func (h *securityHandler) authenticate(password string) (*decrypter, error) {
	var key []byte
	var err error
	if h.R >= 5 {
		key, err = h.authenticateAES256(password)
	} else {
		key, err = h.authenticateUser(latin1(password))
		if err != nil {
			key, err = h.authenticateOwner(latin1(password))
		}
	}
	if err != nil {
		return nil, err
	}
	return &decrypter{key: key, kind: h.kind}, nil
}

func latin1(s string) []byte {
	b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return b
}

func padPassword(pw []byte) []byte {
	out := make([]byte, 32)
	n := copy(out, pw)
	copy(out[n:], passwordPad)
	return out
}

// fileKey computes the R2..R4 file key from a padded user password.
func (h *securityHandler) fileKey(pw []byte) []byte {
	m := md5.New()
	m.Write(padPassword(pw))
	m.Write(h.O)
	m.Write([]byte{byte(h.P), byte(h.P >> 8), byte(h.P >> 16), byte(h.P >> 24)})
	m.Write(h.ID)
	if h.R >= 4 && !h.encryptMD {
		m.Write([]byte{0xff, 0xff, 0xff, 0xff})
	}
	key := m.Sum(nil)
	if h.R >= 3 {
		for i := 0; i < 50; i++ {
			m.Reset()
			m.Write(key[:h.keyLen])
			key = m.Sum(key[:0])
		}
	}
	return key[:h.keyLen]
}

// userHash computes the expected /U value for key.
func (h *securityHandler) userHash(key []byte) []byte {
	if h.R == 2 {
		u := make([]byte, 32)
		c, _ := rc4.NewCipher(key)
		c.XORKeyStream(u, passwordPad)
		return u
	}
	m := md5.New()
	m.Write(passwordPad)
	m.Write(h.ID)
	u := m.Sum(nil)
	xorRounds(key, u, false)
	return u
}

// xorRounds applies the 20 RC4 passes used by R3 and later, each keyed with
// key XOR the round number. reverse runs them from 19 down to 0.
func xorRounds(key, data []byte, reverse bool) {
	k := make([]byte, len(key))
	for j := 0; j < 20; j++ {
		i := j
		if reverse {
			i = 19 - j
		}
		for n := range key {
			k[n] = key[n] ^ byte(i)
		}
		c, _ := rc4.NewCipher(k)
		c.XORKeyStream(data, data)
	}
}

func (h *securityHandler) authenticateUser(pw []byte) ([]byte, error) {
	key := h.fileKey(pw)
	u := h.userHash(key)
	n := 32
	if h.R >= 3 {
		n = 16
	}
	if !bytes.Equal(h.U[:n], u[:n]) {
		return nil, ErrInvalidPassword
	}
	return key, nil
}

// authenticateOwner recovers the user password from /O with the owner
// password and then authenticates as the user.
func (h *securityHandler) authenticateOwner(pw []byte) ([]byte, error) {
	m := md5.New()
	m.Write(padPassword(pw))
	key := m.Sum(nil)
	n := 5
	if h.R >= 3 {
		for i := 0; i < 50; i++ {
			m.Reset()
			m.Write(key)
			key = m.Sum(key[:0])
		}
		n = h.keyLen
	}
	key = key[:n]
	user := append([]byte(nil), h.O...)
	if h.R == 2 {
		c, _ := rc4.NewCipher(key)
		c.XORKeyStream(user, user)
	} else {
		xorRounds(key, user, true)
	}
	return h.authenticateUser(user)
}

func (h *securityHandler) authenticateAES256(password string) ([]byte, error) {
	pw := []byte(password)
	if len(pw) > 127 {
		pw = pw[:127]
	}
	// user: U = hash(32) | validation salt(8) | key salt(8)
	if bytes.Equal(h.hash(pw, h.U[32:40], nil), h.U[:32]) {
		return aesUnwrap(h.hash(pw, h.U[40:48], nil), h.UE)
	}
	udata := h.U[:48]
	if bytes.Equal(h.hash(pw, h.O[32:40], udata), h.O[:32]) {
		return aesUnwrap(h.hash(pw, h.O[40:48], udata), h.OE)
	}
	return nil, ErrInvalidPassword
}

// hash is SHA-256 for R5 and the iterated hardened hash for R6.
func (h *securityHandler) hash(pw, salt, udata []byte) []byte {
	s := sha256.New()
	s.Write(pw)
	s.Write(salt)
	s.Write(udata)
	k := s.Sum(nil)
	if h.R == 5 {
		return k
	}
	for round := 0; ; round++ {
		seq := make([]byte, 0, len(pw)+len(k)+len(udata))
		seq = append(append(append(seq, pw...), k...), udata...)
		k1 := bytes.Repeat(seq, 64)
		block, _ := aes.NewCipher(k[:16])
		e := make([]byte, len(k1))
		cipher.NewCBCEncrypter(block, k[16:32]).CryptBlocks(e, k1)
		sum := 0
		for _, c := range e[:16] {
			sum += int(c)
		}
		switch sum % 3 {
		case 0:
			d := sha256.Sum256(e)
			k = d[:]
		case 1:
			d := sha512.Sum384(e)
			k = d[:]
		case 2:
			d := sha512.Sum512(e)
			k = d[:]
		}
		if round >= 63 && int(e[len(e)-1]) <= round-31 {
			break
		}
	}
	return k[:32]
}

func aesUnwrap(kek, wrapped []byte) ([]byte, error) {
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(wrapped))
	cipher.NewCBCDecrypter(block, make([]byte, aes.BlockSize)).CryptBlocks(out, wrapped)
	return out, nil
}

func (d *decrypter) objectKey(ptr objptr) []byte {
	if d.kind == cipherAESV3 {
		return d.key
	}
	h := md5.New()
	h.Write(d.key)
	h.Write([]byte{byte(ptr.id), byte(ptr.id >> 8), byte(ptr.id >> 16), byte(ptr.gen), byte(ptr.gen >> 8)})
	if d.kind == cipherAESV2 {
		h.Write([]byte("sAlT"))
	}
	key := h.Sum(nil)
	n := len(d.key) + 5
	if n > 16 {
		n = 16
	}
	return key[:n]
}

func (d *decrypter) decrypt(ptr objptr, data []byte) ([]byte, error) {
	switch d.kind {
	case cipherIdentity:
		return data, nil
	case cipherRC4:
		c, err := rc4.NewCipher(d.objectKey(ptr))
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(data))
		c.XORKeyStream(out, data)
		return out, nil
	}
	if len(data) < 2*aes.BlockSize || len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("malformed PDF: AES data length %d", len(data))
	}
	block, err := aes.NewCipher(d.objectKey(ptr))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data)-aes.BlockSize)
	cipher.NewCBCDecrypter(block, data[:aes.BlockSize]).CryptBlocks(out, data[aes.BlockSize:])
	if pad := int(out[len(out)-1]); pad >= 1 && pad <= aes.BlockSize {
		out = out[:len(out)-pad]
	}
	return out, nil
}

func (d *decrypter) decryptString(ptr objptr, s string) string {
	out, err := d.decrypt(ptr, []byte(s))
	if err != nil {
		return s
	}
	return string(out)
}

func (d *decrypter) decryptStream(ptr objptr, rd io.Reader) io.Reader {
	if d.kind == cipherRC4 {
		c, err := rc4.NewCipher(d.objectKey(ptr))
		if err != nil {
			return &errorReadCloser{err}
		}
		return &cipher.StreamReader{S: c, R: rd}
	}
	data, err := io.ReadAll(rd)
	if err != nil {
		return &errorReadCloser{err}
	}
	out, err := d.decrypt(ptr, data)
	if err != nil {
		return &errorReadCloser{err}
	}
	return bytes.NewReader(out)
}
