package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrInvalidDecryption is returned for any decryption failure that a wrong
// key, wrong IV, or corrupted ciphertext can produce: malformed base64,
// ciphertext that is not a whole number of blocks, or bad PKCS#7 padding.
// It is the only recoverable error of this package; everything else is a
// programming error (bad key or IV length).
var ErrInvalidDecryption = errors.New("invalid decryption")

func newBlock(key, iv []byte) (cipher.Block, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("iv must be %d bytes, got %d", aes.BlockSize, len(iv))
	}
	return aes.NewCipher(key)
}

// EncryptToString encrypts plaintext with AES-256-CBC and PKCS#7 padding and
// returns the ciphertext as a base64 string. Intended for small payloads;
// use EncryptStream for file-sized data.
func EncryptToString(plaintext, key, iv []byte) (string, error) {
	block, err := newBlock(key, iv)
	if err != nil {
		return "", err
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(padded, padded)

	return base64.StdEncoding.EncodeToString(padded), nil
}

// DecryptString reverses EncryptToString. Any framing or padding problem is
// reported as ErrInvalidDecryption.
func DecryptString(encoded string, key, iv []byte) ([]byte, error) {
	block, err := newBlock(key, iv)
	if err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDecryption, err)
	}
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d", ErrInvalidDecryption, len(data))
	}

	cipher.NewCBCDecrypter(block, iv).CryptBlocks(data, data)

	return pkcs7Unpad(data, aes.BlockSize)
}

// pkcs7Pad returns data extended with 1..blockSize padding bytes, each equal
// to the padding length. The input slice is not modified.
func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("%w: bad padded length %d", ErrInvalidDecryption, len(data))
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize {
		return nil, fmt.Errorf("%w: bad padding", ErrInvalidDecryption)
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("%w: bad padding", ErrInvalidDecryption)
		}
	}
	return data[:len(data)-padLen], nil
}
