/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package fieldset turns result rows into records. Joined queries project
// every column as "Alias.column"; the decoder assigns base-model columns to
// the returned record and the rest to one related record per alias.
package fieldset
