// Package hashing computes and compares perceptual hashes of frames.
//
// Four methods are supported:
//
//   - average: 8x8 grayscale cells compared against their mean
//   - dhash: 9x8 grid, each cell compared with its right neighbour
//   - phash: 64x64 DCT, low 8x8 frequencies compared against their median
//   - color: mean, standard deviation and skewness of six color channels
//
// The first three produce 64-bit vectors compared by Hamming distance and are
// computed with goimagehash. The color-moment method produces an 18-element
// feature vector compared by Euclidean distance.
package hashing
