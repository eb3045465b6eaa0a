// Package fileregistry registers prompt manifests from a directory on disk.
// Every {dir}/**/*.yaml or .yml file becomes one entry, registered in lexical
// path order at startup.
package fileregistry
