package session

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"

	apperrors "github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/errors"
)

// sealInfo binds derived file keys to this use.
const sealInfo = "bindu-admin-session-file"

// FileStore keeps one JSON file per session under a directory. Writes go to
// a temp file and are renamed into place so a crash never leaves a torn file.
// With a secret, files are sealed with AES-GCM and bound to their session ID.
type FileStore struct {
	dir  string
	aead cipher.AEAD
}

// FileOption configures a FileStore.
type FileOption func(*FileStore) error

// WithSecret seals session files with a key derived from secret.
func WithSecret(secret []byte) FileOption {
	return func(f *FileStore) error {
		if len(secret) < 16 {
			return apperrors.InvalidInput("session file secret must be at least 16 bytes")
		}
		key := make([]byte, 32)
		if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(sealInfo)), key); err != nil {
			return fmt.Errorf("derive session file key: %w", err)
		}
		block, err := aes.NewCipher(key)
		if err != nil {
			return fmt.Errorf("session file cipher: %w", err)
		}
		aead, err := cipher.NewGCM(block)
		if err != nil {
			return fmt.Errorf("session file cipher: %w", err)
		}
		f.aead = aead
		return nil
	}
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string, opts ...FileOption) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	f := &FileStore{dir: dir}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *FileStore) path(id string) (string, error) {
	if !ValidID(id) {
		return "", apperrors.InvalidInput("malformed session id")
	}
	return filepath.Join(f.dir, id+".json"), nil
}

// Load returns the zero State for IDs that could never have been saved.
func (f *FileStore) Load(_ context.Context, id string) (State, error) {
	p, err := f.path(id)
	if err != nil {
		return State{}, nil
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("read session %s: %w", id, err)
	}
	if data, err = f.open(id, data); err != nil {
		return State{}, err
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return st, nil
}

func (f *FileStore) Save(_ context.Context, id string, st State) error {
	p, err := f.path(id)
	if err != nil {
		return err
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", id, err)
	}
	if data, err = f.seal(id, data); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, id+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session %s: %w", id, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("commit session %s: %w", id, err)
	}
	return nil
}

func (f *FileStore) Delete(_ context.Context, id string) error {
	p, err := f.path(id)
	if err != nil {
		return nil
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// Expired lists sessions whose file was last written before the given time.
func (f *FileStore) Expired(_ context.Context, before time.Time) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("list session dir: %w", err)
	}
	var ids []string
	for _, e := range entries {
		id, ok := strings.CutSuffix(e.Name(), ".json")
		if !ok || e.IsDir() || !ValidID(id) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(before) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *FileStore) seal(id string, data []byte) ([]byte, error) {
	if f.aead == nil {
		return data, nil
	}
	nonce := make([]byte, f.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("session nonce: %w", err)
	}
	return f.aead.Seal(nonce, nonce, data, []byte(id)), nil
}

func (f *FileStore) open(id string, data []byte) ([]byte, error) {
	if f.aead == nil {
		return data, nil
	}
	n := f.aead.NonceSize()
	if len(data) < n {
		return nil, fmt.Errorf("open session %s: file too short", id)
	}
	plain, err := f.aead.Open(nil, data[:n], data[n:], []byte(id))
	if err != nil {
		return nil, fmt.Errorf("open session %s: %w", id, err)
	}
	return plain, nil
}
