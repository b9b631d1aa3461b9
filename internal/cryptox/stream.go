package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
	"io"
	"os"
)

// DefaultBufferSize is the chunk size used when the caller does not supply
// one. The settings layer restricts user choices to 1024/2048/4096/8192.
const DefaultBufferSize = 1024

// ProgressFunc receives the cumulative number of input bytes processed after
// every chunk.
type ProgressFunc func(processed int64)

func checkBufferSize(n int) error {
	if n <= 0 || n%aes.BlockSize != 0 {
		return fmt.Errorf("buffer size must be a positive multiple of %d, got %d", aes.BlockSize, n)
	}
	return nil
}

// EncryptStream reads plaintext from r in bufSize chunks, encrypts it with
// AES-256-CBC/PKCS#7 and writes the ciphertext to w. onProgress, if non-nil,
// is invoked after each chunk with the cumulative plaintext byte count.
// The reader and writer are not closed; callers own their lifetime.
func EncryptStream(r io.Reader, w io.Writer, key, iv []byte, bufSize int, onProgress ProgressFunc) error {
	block, err := newBlock(key, iv)
	if err != nil {
		return err
	}
	if err := checkBufferSize(bufSize); err != nil {
		return err
	}

	enc := cipher.NewCBCEncrypter(block, iv)
	buf := make([]byte, bufSize)
	var processed int64

	for {
		n, rerr := io.ReadFull(r, buf)
		if errors.Is(rerr, io.EOF) || errors.Is(rerr, io.ErrUnexpectedEOF) {
			// final chunk, possibly empty: pad and flush
			final := pkcs7Pad(buf[:n], aes.BlockSize)
			enc.CryptBlocks(final, final)
			if _, err := w.Write(final); err != nil {
				return err
			}
			processed += int64(n)
			if onProgress != nil {
				onProgress(processed)
			}
			return nil
		}
		if rerr != nil {
			return rerr
		}

		enc.CryptBlocks(buf, buf)
		if _, err := w.Write(buf); err != nil {
			return err
		}
		processed += int64(n)
		if onProgress != nil {
			onProgress(processed)
		}
	}
}

// DecryptStream reads ciphertext from r in bufSize chunks, decrypts it and
// writes the plaintext to w. The final block is withheld until EOF so the
// PKCS#7 padding can be validated and stripped; truncated or corrupted input
// surfaces as ErrInvalidDecryption. onProgress receives the cumulative
// ciphertext byte count.
func DecryptStream(r io.Reader, w io.Writer, key, iv []byte, bufSize int, onProgress ProgressFunc) error {
	block, err := newBlock(key, iv)
	if err != nil {
		return err
	}
	if err := checkBufferSize(bufSize); err != nil {
		return err
	}

	dec := cipher.NewCBCDecrypter(block, iv)
	buf := make([]byte, bufSize)
	var tail []byte
	var processed int64

	for {
		n, rerr := io.ReadFull(r, buf)
		if n > 0 {
			if n%aes.BlockSize != 0 {
				return fmt.Errorf("%w: truncated ciphertext", ErrInvalidDecryption)
			}
			dec.CryptBlocks(buf[:n], buf[:n])
			if tail != nil {
				if _, err := w.Write(tail); err != nil {
					return err
				}
			} else {
				tail = make([]byte, aes.BlockSize)
			}
			if _, err := w.Write(buf[:n-aes.BlockSize]); err != nil {
				return err
			}
			copy(tail, buf[n-aes.BlockSize:n])
			processed += int64(n)
			if onProgress != nil {
				onProgress(processed)
			}
		}
		if errors.Is(rerr, io.EOF) || errors.Is(rerr, io.ErrUnexpectedEOF) {
			if tail == nil {
				return fmt.Errorf("%w: empty ciphertext", ErrInvalidDecryption)
			}
			plain, err := pkcs7Unpad(tail, aes.BlockSize)
			if err != nil {
				return err
			}
			if _, err := w.Write(plain); err != nil {
				return err
			}
			return nil
		}
		if rerr != nil {
			return rerr
		}
	}
}

// EncryptFile stream-encrypts srcPath into dstPath. On any failure the
// partially written destination file is removed.
func EncryptFile(srcPath, dstPath string, key, iv []byte, bufSize int, onProgress ProgressFunc) error {
	return transformFile(srcPath, dstPath, func(src io.Reader, dst io.Writer) error {
		return EncryptStream(src, dst, key, iv, bufSize, onProgress)
	})
}

// DecryptFile stream-decrypts srcPath into dstPath. On any failure the
// partially written destination file is removed.
func DecryptFile(srcPath, dstPath string, key, iv []byte, bufSize int, onProgress ProgressFunc) error {
	return transformFile(srcPath, dstPath, func(src io.Reader, dst io.Writer) error {
		return DecryptStream(src, dst, key, iv, bufSize, onProgress)
	})
}

func transformFile(srcPath, dstPath string, transform func(io.Reader, io.Writer) error) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", srcPath, err)
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", dstPath, err)
	}

	if err := transform(src, dst); err != nil {
		dst.Close()
		os.Remove(dstPath)
		return err
	}

	if err := dst.Close(); err != nil {
		os.Remove(dstPath)
		return err
	}
	return nil
}
