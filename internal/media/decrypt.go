// Package media decrypts provider-encrypted WhatsApp media and resolves media
// references to raw bytes for the dashboard.
package media

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/boden-crm/inbox-service/internal/domain"
	"golang.org/x/crypto/hkdf"
)

// ErrDecrypt wraps every bad-key/bad-ciphertext failure so callers can tell
// them apart from internal errors. Messages never include key material.
var ErrDecrypt = errors.New("media decryption failed")

const (
	mediaKeySize = 32
	// 16-byte IV + 32-byte cipher key + 64-byte MAC key.
	derivedKeySize = 112
)

// hkdfInfo holds the domain-separation label per media kind. Stickers share
// the image label. The provider's scheme fixes these strings; changing one
// breaks interoperability silently.
func hkdfInfo(mediaType domain.MediaType) []byte {
	switch mediaType {
	case domain.MediaVideo:
		return []byte("WhatsApp Video Keys")
	case domain.MediaDocument:
		return []byte("WhatsApp Document Keys")
	case domain.MediaAudio:
		return []byte("WhatsApp Audio Keys")
	default:
		return []byte("WhatsApp Image Keys")
	}
}

// Decrypt recovers the original file bytes from a provider-encrypted media
// blob. The base64 media key must decode to exactly 32 bytes; 112 bytes of
// key material are derived from it via HKDF-SHA-256 with an empty salt and the
// per-kind info label, then the blob is decrypted with AES-256-CBC.
func Decrypt(encrypted []byte, mediaKeyBase64 string, mediaType domain.MediaType) ([]byte, error) {
	mediaKey, err := base64.StdEncoding.DecodeString(mediaKeyBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: media key is not valid base64", ErrDecrypt)
	}
	if len(mediaKey) != mediaKeySize {
		return nil, fmt.Errorf("%w: media key must decode to %d bytes, got %d", ErrDecrypt, mediaKeySize, len(mediaKey))
	}

	derived := make([]byte, derivedKeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, mediaKey, nil, hkdfInfo(mediaType)), derived); err != nil {
		return nil, fmt.Errorf("derive media keys: %w", err)
	}

	// The byte offsets are load-bearing: IV, cipher key, MAC key in that
	// order. The MAC key is derived but not verified.
	iv := derived[0:16]
	cipherKey := derived[16:48]
	_ = derived[48:112]

	if len(encrypted) == 0 || len(encrypted)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d is not a multiple of the AES block size", ErrDecrypt, len(encrypted))
	}

	block, err := aes.NewCipher(cipherKey)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}

	plaintext := make([]byte, len(encrypted))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, encrypted)

	return stripPKCS7(plaintext)
}

func stripPKCS7(padded []byte) ([]byte, error) {
	padding := int(padded[len(padded)-1])
	if padding == 0 || padding > aes.BlockSize || padding > len(padded) {
		return nil, fmt.Errorf("%w: invalid padding", ErrDecrypt)
	}
	for _, b := range padded[len(padded)-padding:] {
		if int(b) != padding {
			return nil, fmt.Errorf("%w: invalid padding", ErrDecrypt)
		}
	}
	return padded[:len(padded)-padding], nil
}
