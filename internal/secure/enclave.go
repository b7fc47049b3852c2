package secure

import (
	"sync"

	"github.com/awnumar/memguard"
)

// Buffer provides memory-safe storage for credential material. Resolved
// requirepass and ACL passwords live in a memguard.Enclave between
// resolution and rendering so they are encrypted at rest in memory and
// protected from swapping via mlock.
type Buffer struct {
	enclave *memguard.Enclave
	mu      sync.RWMutex
	// destroyed allows idempotent Destroy() calls and prevents use after destroy
	destroyed bool
}

// NewBuffer creates a protected buffer from secret bytes. The input is
// copied into a protected memory region; the caller should zero its copy.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{
		enclave: memguard.NewEnclave(data),
	}
}

// Open decrypts and returns the protected data in a locked buffer.
// The caller MUST call Destroy() on the returned LockedBuffer when done
// to securely wipe the plaintext from memory.
func (b *Buffer) Open() (*memguard.LockedBuffer, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.destroyed {
		return memguard.NewBufferFromBytes([]byte{}), nil
	}

	return b.enclave.Open()
}

// Destroy marks this Buffer as destroyed and prevents further use. Calling
// it multiple times is safe; after Destroy(), Open() returns an empty
// buffer. For complete cleanup of all memguard data at application exit,
// call memguard.Purge() in a defer statement in main().
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed {
		return
	}

	b.enclave = nil
	b.destroyed = true
}
