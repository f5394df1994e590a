// Package mcp exposes the search engine over the Model Context Protocol
// so LLM agents can index and query scientific data files as tools.
package mcp
