// Package secure wraps memguard to hold resolved credential material
// between source resolution and artifact rendering. Plaintext exists only
// inside short-lived locked buffers at the moment a config file is built.
package secure
