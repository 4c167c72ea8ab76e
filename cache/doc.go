/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package cache provides the byte cache used for read-through model caching
// and for key-attribute store continuation tokens. A nil provider is
// replaced by Nop, so caching is always optional.
package cache
