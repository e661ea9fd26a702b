// Package password hashes and verifies user passwords.
//
// [Hasher] is the contract consumed by login: Hash produces a self-describing
// digest with its cost and salt embedded, Verify compares a plaintext against
// such a digest. A wrong password yields (false, nil); only a digest that
// cannot be parsed yields an error, wrapped in [ErrMalformedDigest].
//
// Two adapters are provided:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>   ([Argon2])
//	$2a$<cost>$<salt+hash>                                          ([Bcrypt])
//
// # What this package must NOT do
//
//   - Store or retrieve passwords.
//   - Log plaintext passwords or digests.
package password
