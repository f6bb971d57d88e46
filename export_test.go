package mpeg2

// BuildStream builds a stream of intra pictures filled with the value 133.
var BuildStream = testStream
