package services

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/mkarpenko/cryptdrive/internal/client/models"
	"github.com/mkarpenko/cryptdrive/internal/client/transport"
)

// fakeTransport is a scripted transport.Client that records every call.
type fakeTransport struct {
	loginErr  error
	logoutErr error
	params    *transport.Parameters
	paramsErr error

	listings map[string][]models.ListEntry
	listErrs map[string]error
	files    map[string][]byte
	fileErrs map[string]error
	exists   map[string]bool

	loginCalls  int
	logoutCalls int
	listCalls   map[string]int
	fileCalls   map[string]int
	fileOrder   []string
	existsCalls []string
	mkdirCalls  []string
	deleteCalls []string
	uploads     map[string][]byte
	uploadTypes map[string]string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		listings:    map[string][]models.ListEntry{},
		listErrs:    map[string]error{},
		files:       map[string][]byte{},
		fileErrs:    map[string]error{},
		exists:      map[string]bool{},
		listCalls:   map[string]int{},
		fileCalls:   map[string]int{},
		uploads:     map[string][]byte{},
		uploadTypes: map[string]string{},
	}
}

func (f *fakeTransport) Login(ctx context.Context, username, password string) error {
	f.loginCalls++
	return f.loginErr
}

func (f *fakeTransport) Logout(ctx context.Context) error {
	f.logoutCalls++
	return f.logoutErr
}

func (f *fakeTransport) GetEncryptionParameters(ctx context.Context) (*transport.Parameters, error) {
	if f.paramsErr != nil {
		return nil, f.paramsErr
	}
	return f.params, nil
}

func (f *fakeTransport) ListDirectory(ctx context.Context, path string) ([]models.ListEntry, error) {
	f.listCalls[path]++
	if err := f.listErrs[path]; err != nil {
		return nil, err
	}
	entries, ok := f.listings[path]
	if !ok {
		return nil, &transport.Rejection{Reason: fmt.Sprintf("no such directory %q", path)}
	}
	return entries, nil
}

func (f *fakeTransport) PathExists(ctx context.Context, path string) (bool, error) {
	f.existsCalls = append(f.existsCalls, path)
	return f.exists[path], nil
}

func (f *fakeTransport) GetFileStream(ctx context.Context, path string, onProgress transport.ProgressFunc) (io.ReadCloser, error) {
	f.fileCalls[path]++
	f.fileOrder = append(f.fileOrder, path)
	if err := f.fileErrs[path]; err != nil {
		return nil, err
	}
	content, ok := f.files[path]
	if !ok {
		return nil, &transport.Rejection{Reason: "no such file"}
	}
	if onProgress != nil {
		onProgress(int64(len(content)), int64(len(content)))
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (f *fakeTransport) CreateDirectory(ctx context.Context, path string) error {
	f.mkdirCalls = append(f.mkdirCalls, path)
	f.listings[path] = nil
	return nil
}

func (f *fakeTransport) CreateFile(ctx context.Context, path string, content io.Reader, size int64, mimeType string, onProgress transport.ProgressFunc) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	f.uploads[path] = data
	f.uploadTypes[path] = mimeType
	if onProgress != nil {
		onProgress(int64(len(data)), size)
	}
	return nil
}

func (f *fakeTransport) DeleteItem(ctx context.Context, path string) error {
	f.deleteCalls = append(f.deleteCalls, path)
	return nil
}

func (f *fakeTransport) Close() error { return nil }
