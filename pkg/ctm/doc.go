// Package ctm implements the OpenCTM (.ctm) mesh decoder: the RAW
// compression method only, since no LZMA implementation is available to
// decode the MG1/MG2 methods.
package ctm
