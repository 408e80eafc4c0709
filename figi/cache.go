// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package figi resolves composite FIGIs for symbols that details refresh
// discovered without one, via the OpenFIGI mapping API.
package figi

import "github.com/alphadose/haxmap"

// Cache holds symbol->composite-FIGI mappings already resolved this process,
// so a symbol resolved once by a Client never pays for a second OpenFIGI
// round trip. Failed lookups are not cached.
type Cache struct {
	symbols *haxmap.Map[string, string]
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{symbols: haxmap.New[string, string]()}
}

// Get returns the cached FIGI for symbol, if any.
func (c *Cache) Get(symbol string) (string, bool) {
	return c.symbols.Get(symbol)
}

// Set records a resolved FIGI for symbol.
func (c *Cache) Set(symbol, figi string) {
	c.symbols.Set(symbol, figi)
}
