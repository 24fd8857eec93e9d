package ports

// PasswordHasher is the one-way salted hash primitive used for credential
// storage. Hashing the same plaintext twice yields different encodings
// (per-call random salt); Verify recomputes with the embedded salt and
// compares in constant time.
type PasswordHasher interface {
	Hash(password string) (string, error)

	// Verify reports whether password matches encodedHash. A malformed
	// stored hash yields false, never a panic or an error.
	Verify(password, encodedHash string) bool
}
