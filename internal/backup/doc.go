// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package backup copies sealed cache files to and from S3. Only ciphertext
// leaves the machine; nothing here decrypts.
package backup
