package mpeg2

const (
	pictureTypeIntra      = 1
	pictureTypePredictive = 2
	pictureTypeB          = 3
	pictureTypeD          = 4

	startCodePrefix = 0x000001

	startPicture     = 0x00
	startSliceFirst  = 0x01
	startSliceLast   = 0xAF
	startUserData    = 0xB2
	startSequence    = 0xB3
	startExtension   = 0xB5
	startSequenceEnd = 0xB7
	startGOP         = 0xB8
)

// Extension start code identifiers.
const (
	extSequence         = 1
	extSequenceDisplay  = 2
	extQuantMatrix      = 3
	extCopyright        = 4
	extSequenceScalable = 5
	extPictureDisplay   = 7
	extPictureCoding    = 8
	extSpatialScalable  = 9
	extTemporalScalable = 10
	extCameraParameters = 11
	extITUT             = 12
)

// Macroblock type flags.
const (
	mbIntra    = 0x01
	mbPattern  = 0x02
	mbBackward = 0x04
	mbForward  = 0x08
	mbQuant    = 0x10
)

const (
	coeffEscape = 0xffff
	coeffEOB    = 0xfffe
)

func startIsSlice(c int) bool {
	return c >= startSliceFirst && c <= startSliceLast
}

// frameRates holds frame_rate_code as numerator/denominator pairs.
var frameRates = [16][2]int{
	{0, 1}, {24000, 1001}, {24, 1}, {25, 1}, {30000, 1001}, {30, 1}, {50, 1}, {60000, 1001},
	{60, 1}, {0, 1}, {0, 1}, {0, 1}, {0, 1}, {0, 1}, {0, 1}, {0, 1},
}

// mpeg1AspectRatio is the pel aspect ratio of MPEG-1 aspect_ratio_information.
var mpeg1AspectRatio = [16]float64{
	0.0000, 1.0000, 0.6735, 0.7031, 0.7615, 0.8055, 0.8437, 0.8935,
	0.9375, 0.9815, 1.0255, 1.0695, 1.1250, 1.1575, 1.2015, 0.0000,
}

// mpeg2AspectRatio is the display aspect ratio of MPEG-2 aspect_ratio_information.
var mpeg2AspectRatio = [16]float64{
	0, 1, 4.0 / 3.0, 16.0 / 9.0, 2.21,
}

// Scan tables map decode order to raster position.
var scanZigZag = [64]uint8{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

var scanAlternate = [64]uint8{
	0, 8, 16, 24, 1, 9, 2, 10,
	17, 25, 32, 40, 48, 56, 57, 49,
	41, 33, 26, 18, 3, 11, 4, 12,
	19, 27, 34, 42, 50, 58, 35, 43,
	51, 59, 20, 28, 5, 13, 6, 14,
	21, 29, 36, 44, 52, 60, 37, 45,
	53, 61, 22, 30, 7, 15, 23, 31,
	38, 46, 54, 62, 39, 47, 55, 63,
}

// Default matrices in raster order.
var defaultIntraMatrix = [64]byte{
	8, 16, 19, 22, 26, 27, 29, 34,
	16, 16, 22, 24, 27, 29, 34, 37,
	19, 22, 26, 27, 29, 34, 34, 38,
	22, 22, 26, 27, 29, 34, 37, 40,
	22, 26, 27, 29, 32, 35, 40, 48,
	26, 27, 29, 32, 35, 40, 48, 58,
	26, 27, 29, 34, 38, 46, 56, 69,
	27, 29, 35, 38, 46, 56, 69, 83,
}

var defaultNonIntraMatrix = [64]byte{
	16, 16, 16, 16, 16, 16, 16, 16,
	16, 16, 16, 16, 16, 16, 16, 16,
	16, 16, 16, 16, 16, 16, 16, 16,
	16, 16, 16, 16, 16, 16, 16, 16,
	16, 16, 16, 16, 16, 16, 16, 16,
	16, 16, 16, 16, 16, 16, 16, 16,
	16, 16, 16, 16, 16, 16, 16, 16,
	16, 16, 16, 16, 16, 16, 16, 16,
}

// nonLinearQuantScale maps quantiser_scale_code when q_scale_type is set.
var nonLinearQuantScale = [32]int{
	0, 1, 2, 3, 4, 5, 6, 7,
	8, 10, 12, 14, 16, 18, 20, 22,
	24, 28, 32, 36, 40, 44, 48, 52,
	56, 64, 72, 80, 88, 96, 104, 112,
}

// idctPremultiplier scales coefficients into the fixed point domain of idct.
var idctPremultiplier = [64]int32{
	32, 44, 42, 38, 32, 25, 17, 9,
	44, 62, 58, 52, 44, 35, 24, 12,
	42, 58, 55, 49, 42, 33, 23, 12,
	38, 52, 49, 44, 38, 30, 20, 10,
	32, 44, 42, 38, 32, 25, 17, 9,
	25, 35, 33, 30, 25, 20, 14, 7,
	17, 24, 23, 20, 17, 14, 9, 5,
	9, 12, 12, 10, 9, 7, 5, 2,
}

// Value 34 is macroblock_stuffing, 35 is macroblock_escape.
var vlcMBAddrIncrement = []vlc{
	{1 << 1, 0}, {0, 1}, //   0: x
	{2 << 1, 0}, {3 << 1, 0}, //   1: 0x
	{4 << 1, 0}, {5 << 1, 0}, //   2: 00x
	{0, 3}, {0, 2}, //   3: 01x
	{6 << 1, 0}, {7 << 1, 0}, //   4: 000x
	{0, 5}, {0, 4}, //   5: 001x
	{8 << 1, 0}, {9 << 1, 0}, //   6: 0000x
	{0, 7}, {0, 6}, //   7: 0001x
	{10 << 1, 0}, {11 << 1, 0}, //   8: 0000 0x
	{12 << 1, 0}, {13 << 1, 0}, //   9: 0000 1x
	{14 << 1, 0}, {15 << 1, 0}, //  10: 0000 00x
	{16 << 1, 0}, {17 << 1, 0}, //  11: 0000 01x
	{18 << 1, 0}, {19 << 1, 0}, //  12: 0000 10x
	{0, 9}, {0, 8}, //  13: 0000 11x
	{-1, 0}, {20 << 1, 0}, //  14: 0000 000x
	{-1, 0}, {21 << 1, 0}, //  15: 0000 001x
	{22 << 1, 0}, {23 << 1, 0}, //  16: 0000 010x
	{0, 15}, {0, 14}, //  17: 0000 011x
	{0, 13}, {0, 12}, //  18: 0000 100x
	{0, 11}, {0, 10}, //  19: 0000 101x
	{24 << 1, 0}, {25 << 1, 0}, //  20: 0000 0001x
	{26 << 1, 0}, {27 << 1, 0}, //  21: 0000 0011x
	{28 << 1, 0}, {29 << 1, 0}, //  22: 0000 0100x
	{30 << 1, 0}, {31 << 1, 0}, //  23: 0000 0101x
	{32 << 1, 0}, {-1, 0}, //  24: 0000 0001 0x
	{-1, 0}, {33 << 1, 0}, //  25: 0000 0001 1x
	{34 << 1, 0}, {35 << 1, 0}, //  26: 0000 0011 0x
	{36 << 1, 0}, {37 << 1, 0}, //  27: 0000 0011 1x
	{38 << 1, 0}, {39 << 1, 0}, //  28: 0000 0100 0x
	{0, 21}, {0, 20}, //  29: 0000 0100 1x
	{0, 19}, {0, 18}, //  30: 0000 0101 0x
	{0, 17}, {0, 16}, //  31: 0000 0101 1x
	{0, 35}, {-1, 0}, //  32: 0000 0001 00x
	{-1, 0}, {0, 34}, //  33: 0000 0001 11x
	{0, 33}, {0, 32}, //  34: 0000 0011 00x
	{0, 31}, {0, 30}, //  35: 0000 0011 01x
	{0, 29}, {0, 28}, //  36: 0000 0011 10x
	{0, 27}, {0, 26}, //  37: 0000 0011 11x
	{0, 25}, {0, 24}, //  38: 0000 0100 00x
	{0, 23}, {0, 22}, //  39: 0000 0100 01x
}

var vlcMBTypeI = []vlc{
	{1 << 1, 0}, {0, 0x01}, //   0: x
	{-1, 0}, {0, 0x11}, //   1: 0x
}

var vlcMBTypeP = []vlc{
	{1 << 1, 0}, {0, 0x0a}, //   0: x
	{2 << 1, 0}, {0, 0x02}, //   1: 0x
	{3 << 1, 0}, {0, 0x08}, //   2: 00x
	{4 << 1, 0}, {5 << 1, 0}, //   3: 000x
	{6 << 1, 0}, {0, 0x12}, //   4: 0000x
	{0, 0x1a}, {0, 0x01}, //   5: 0001x
	{-1, 0}, {0, 0x11}, //   6: 0000 0x
}

var vlcMBTypeB = []vlc{
	{1 << 1, 0}, {2 << 1, 0}, //   0: x
	{3 << 1, 0}, {4 << 1, 0}, //   1: 0x
	{0, 0x0c}, {0, 0x0e}, //   2: 1x
	{5 << 1, 0}, {6 << 1, 0}, //   3: 00x
	{0, 0x04}, {0, 0x06}, //   4: 01x
	{7 << 1, 0}, {8 << 1, 0}, //   5: 000x
	{0, 0x08}, {0, 0x0a}, //   6: 001x
	{9 << 1, 0}, {10 << 1, 0}, //   7: 0000x
	{0, 0x1e}, {0, 0x01}, //   8: 0001x
	{-1, 0}, {0, 0x11}, //   9: 0000 0x
	{0, 0x16}, {0, 0x1a}, //  10: 0000 1x
}

// D pictures carry only intra macroblocks, coded as "1".
var vlcMBTypeD = []vlc{
	{-1, 0}, {0, 0x01}, //   0: x
}

var vlcMBType = [5][]vlc{
	nil,
	vlcMBTypeI,
	vlcMBTypeP,
	vlcMBTypeB,
	vlcMBTypeD,
}

var vlcCodedBlockPattern = []vlc{
	{1 << 1, 0}, {2 << 1, 0}, //   0: x
	{3 << 1, 0}, {4 << 1, 0}, //   1: 0x
	{5 << 1, 0}, {6 << 1, 0}, //   2: 1x
	{7 << 1, 0}, {8 << 1, 0}, //   3: 00x
	{9 << 1, 0}, {10 << 1, 0}, //   4: 01x
	{11 << 1, 0}, {12 << 1, 0}, //   5: 10x
	{13 << 1, 0}, {0, 60}, //   6: 11x
	{14 << 1, 0}, {15 << 1, 0}, //   7: 000x
	{16 << 1, 0}, {17 << 1, 0}, //   8: 001x
	{18 << 1, 0}, {19 << 1, 0}, //   9: 010x
	{20 << 1, 0}, {21 << 1, 0}, //  10: 011x
	{22 << 1, 0}, {23 << 1, 0}, //  11: 100x
	{0, 32}, {0, 16}, //  12: 101x
	{0, 8}, {0, 4}, //  13: 110x
	{24 << 1, 0}, {25 << 1, 0}, //  14: 0000x
	{26 << 1, 0}, {27 << 1, 0}, //  15: 0001x
	{28 << 1, 0}, {29 << 1, 0}, //  16: 0010x
	{30 << 1, 0}, {31 << 1, 0}, //  17: 0011x
	{0, 62}, {0, 2}, //  18: 0100x
	{0, 61}, {0, 1}, //  19: 0101x
	{0, 56}, {0, 52}, //  20: 0110x
	{0, 44}, {0, 28}, //  21: 0111x
	{0, 40}, {0, 20}, //  22: 1000x
	{0, 48}, {0, 12}, //  23: 1001x
	{32 << 1, 0}, {33 << 1, 0}, //  24: 0000 0x
	{34 << 1, 0}, {35 << 1, 0}, //  25: 0000 1x
	{36 << 1, 0}, {37 << 1, 0}, //  26: 0001 0x
	{38 << 1, 0}, {39 << 1, 0}, //  27: 0001 1x
	{40 << 1, 0}, {41 << 1, 0}, //  28: 0010 0x
	{42 << 1, 0}, {43 << 1, 0}, //  29: 0010 1x
	{0, 63}, {0, 3}, //  30: 0011 0x
	{0, 36}, {0, 24}, //  31: 0011 1x
	{44 << 1, 0}, {45 << 1, 0}, //  32: 0000 00x
	{46 << 1, 0}, {47 << 1, 0}, //  33: 0000 01x
	{48 << 1, 0}, {49 << 1, 0}, //  34: 0000 10x
	{50 << 1, 0}, {51 << 1, 0}, //  35: 0000 11x
	{52 << 1, 0}, {53 << 1, 0}, //  36: 0001 00x
	{54 << 1, 0}, {55 << 1, 0}, //  37: 0001 01x
	{56 << 1, 0}, {57 << 1, 0}, //  38: 0001 10x
	{58 << 1, 0}, {59 << 1, 0}, //  39: 0001 11x
	{0, 34}, {0, 18}, //  40: 0010 00x
	{0, 10}, {0, 6}, //  41: 0010 01x
	{0, 33}, {0, 17}, //  42: 0010 10x
	{0, 9}, {0, 5}, //  43: 0010 11x
	{63 << 1, 0}, {60 << 1, 0}, //  44: 0000 000x
	{61 << 1, 0}, {62 << 1, 0}, //  45: 0000 001x
	{0, 58}, {0, 54}, //  46: 0000 010x
	{0, 46}, {0, 30}, //  47: 0000 011x
	{0, 57}, {0, 53}, //  48: 0000 100x
	{0, 45}, {0, 29}, //  49: 0000 101x
	{0, 38}, {0, 26}, //  50: 0000 110x
	{0, 37}, {0, 25}, //  51: 0000 111x
	{0, 43}, {0, 23}, //  52: 0001 000x
	{0, 51}, {0, 15}, //  53: 0001 001x
	{0, 42}, {0, 22}, //  54: 0001 010x
	{0, 50}, {0, 14}, //  55: 0001 011x
	{0, 41}, {0, 21}, //  56: 0001 100x
	{0, 49}, {0, 13}, //  57: 0001 101x
	{0, 35}, {0, 19}, //  58: 0001 110x
	{0, 11}, {0, 7}, //  59: 0001 111x
	{0, 39}, {0, 27}, //  60: 0000 0001x
	{0, 59}, {0, 55}, //  61: 0000 0010x
	{0, 47}, {0, 31}, //  62: 0000 0011x
	{-1, 0}, {0, 0}, //  63: 0000 0000x
}

var vlcMotionCode = []vlc{
	{1 << 1, 0}, {0, 0}, //   0: x
	{2 << 1, 0}, {3 << 1, 0}, //   1: 0x
	{4 << 1, 0}, {5 << 1, 0}, //   2: 00x
	{0, 1}, {0, -1}, //   3: 01x
	{6 << 1, 0}, {7 << 1, 0}, //   4: 000x
	{0, 2}, {0, -2}, //   5: 001x
	{8 << 1, 0}, {9 << 1, 0}, //   6: 0000x
	{0, 3}, {0, -3}, //   7: 0001x
	{10 << 1, 0}, {11 << 1, 0}, //   8: 0000 0x
	{12 << 1, 0}, {13 << 1, 0}, //   9: 0000 1x
	{-1, 0}, {14 << 1, 0}, //  10: 0000 00x
	{15 << 1, 0}, {16 << 1, 0}, //  11: 0000 01x
	{17 << 1, 0}, {18 << 1, 0}, //  12: 0000 10x
	{0, 4}, {0, -4}, //  13: 0000 11x
	{-1, 0}, {19 << 1, 0}, //  14: 0000 001x
	{20 << 1, 0}, {21 << 1, 0}, //  15: 0000 010x
	{0, 7}, {0, -7}, //  16: 0000 011x
	{0, 6}, {0, -6}, //  17: 0000 100x
	{0, 5}, {0, -5}, //  18: 0000 101x
	{22 << 1, 0}, {23 << 1, 0}, //  19: 0000 0011x
	{24 << 1, 0}, {25 << 1, 0}, //  20: 0000 0100x
	{26 << 1, 0}, {27 << 1, 0}, //  21: 0000 0101x
	{28 << 1, 0}, {29 << 1, 0}, //  22: 0000 0011 0x
	{30 << 1, 0}, {31 << 1, 0}, //  23: 0000 0011 1x
	{32 << 1, 0}, {33 << 1, 0}, //  24: 0000 0100 0x
	{0, 10}, {0, -10}, //  25: 0000 0100 1x
	{0, 9}, {0, -9}, //  26: 0000 0101 0x
	{0, 8}, {0, -8}, //  27: 0000 0101 1x
	{0, 16}, {0, -16}, //  28: 0000 0011 00x
	{0, 15}, {0, -15}, //  29: 0000 0011 01x
	{0, 14}, {0, -14}, //  30: 0000 0011 10x
	{0, 13}, {0, -13}, //  31: 0000 0011 11x
	{0, 12}, {0, -12}, //  32: 0000 0100 00x
	{0, 11}, {0, -11}, //  33: 0000 0100 01x
}

var vlcDualPrime = []vlc{
	{0, 0}, {1 << 1, 0}, //   0: x
	{0, 1}, {0, -1}, //   1: 1x
}

var vlcDCSizeLuma = []vlc{
	{1 << 1, 0}, {2 << 1, 0}, //   0: x
	{0, 1}, {0, 2}, //   1: 0x
	{3 << 1, 0}, {4 << 1, 0}, //   2: 1x
	{0, 0}, {0, 3}, //   3: 10x
	{0, 4}, {5 << 1, 0}, //   4: 11x
	{0, 5}, {6 << 1, 0}, //   5: 111x
	{0, 6}, {7 << 1, 0}, //   6: 1111x
	{0, 7}, {8 << 1, 0}, //   7: 1111 1x
	{0, 8}, {9 << 1, 0}, //   8: 1111 11x
	{0, 9}, {10 << 1, 0}, //   9: 1111 111x
	{0, 10}, {0, 11}, //  10: 1111 1111x
}

var vlcDCSizeChroma = []vlc{
	{1 << 1, 0}, {2 << 1, 0}, //   0: x
	{0, 0}, {0, 1}, //   1: 0x
	{0, 2}, {3 << 1, 0}, //   2: 1x
	{0, 3}, {4 << 1, 0}, //   3: 11x
	{0, 4}, {5 << 1, 0}, //   4: 111x
	{0, 5}, {6 << 1, 0}, //   5: 1111x
	{0, 6}, {7 << 1, 0}, //   6: 1111 1x
	{0, 7}, {8 << 1, 0}, //   7: 1111 11x
	{0, 8}, {9 << 1, 0}, //   8: 1111 111x
	{0, 9}, {10 << 1, 0}, //   9: 1111 1111x
	{0, 10}, {0, 11}, //  10: 1111 1111 1x
}

var vlcDCSize = [3][]vlc{
	vlcDCSizeLuma,
	vlcDCSizeChroma,
	vlcDCSizeChroma,
}

// Coefficient tables, run in the high byte and level in the low byte.
// The sign bit follows in the stream. coeffEOB and coeffEscape mark the
// end of block and escape codes.
//
// vlcCoeffB14 is used for all non-intra blocks and, unless intra_vlc_format
// is set, for intra blocks. The first coefficient of a non-intra block uses
// "1s" for run 0, level 1 and is handled before the table is consulted.
var vlcCoeffB14 = []vlcUint{
	{1 << 1, 0}, {2 << 1, 0}, //   0: x
	{3 << 1, 0}, {4 << 1, 0}, //   1: 0x
	{0, 0xfffe}, {0, 0x0001}, //   2: 1x
	{5 << 1, 0}, {6 << 1, 0}, //   3: 00x
	{7 << 1, 0}, {0, 0x0101}, //   4: 01x
	{8 << 1, 0}, {9 << 1, 0}, //   5: 000x
	{10 << 1, 0}, {11 << 1, 0}, //   6: 001x
	{0, 0x0002}, {0, 0x0201}, //   7: 010x
	{12 << 1, 0}, {13 << 1, 0}, //   8: 0000x
	{14 << 1, 0}, {15 << 1, 0}, //   9: 0001x
	{16 << 1, 0}, {0, 0x0003}, //  10: 0010x
	{0, 0x0401}, {0, 0x0301}, //  11: 0011x
	{17 << 1, 0}, {0, 0xffff}, //  12: 0000 0x
	{18 << 1, 0}, {19 << 1, 0}, //  13: 0000 1x
	{0, 0x0701}, {0, 0x0601}, //  14: 0001 0x
	{0, 0x0102}, {0, 0x0501}, //  15: 0001 1x
	{20 << 1, 0}, {21 << 1, 0}, //  16: 0010 0x
	{22 << 1, 0}, {23 << 1, 0}, //  17: 0000 00x
	{0, 0x0202}, {0, 0x0901}, //  18: 0000 10x
	{0, 0x0004}, {0, 0x0801}, //  19: 0000 11x
	{24 << 1, 0}, {25 << 1, 0}, //  20: 0010 00x
	{26 << 1, 0}, {27 << 1, 0}, //  21: 0010 01x
	{28 << 1, 0}, {29 << 1, 0}, //  22: 0000 000x
	{30 << 1, 0}, {31 << 1, 0}, //  23: 0000 001x
	{0, 0x0d01}, {0, 0x0006}, //  24: 0010 000x
	{0, 0x0c01}, {0, 0x0b01}, //  25: 0010 001x
	{0, 0x0302}, {0, 0x0103}, //  26: 0010 010x
	{0, 0x0005}, {0, 0x0a01}, //  27: 0010 011x
	{32 << 1, 0}, {33 << 1, 0}, //  28: 0000 0000x
	{34 << 1, 0}, {35 << 1, 0}, //  29: 0000 0001x
	{36 << 1, 0}, {37 << 1, 0}, //  30: 0000 0010x
	{38 << 1, 0}, {39 << 1, 0}, //  31: 0000 0011x
	{40 << 1, 0}, {41 << 1, 0}, //  32: 0000 0000 0x
	{42 << 1, 0}, {43 << 1, 0}, //  33: 0000 0000 1x
	{44 << 1, 0}, {45 << 1, 0}, //  34: 0000 0001 0x
	{46 << 1, 0}, {47 << 1, 0}, //  35: 0000 0001 1x
	{0, 0x1001}, {0, 0x0502}, //  36: 0000 0010 0x
	{0, 0x0007}, {0, 0x0203}, //  37: 0000 0010 1x
	{0, 0x0104}, {0, 0x0f01}, //  38: 0000 0011 0x
	{0, 0x0e01}, {0, 0x0402}, //  39: 0000 0011 1x
	{48 << 1, 0}, {49 << 1, 0}, //  40: 0000 0000 00x
	{50 << 1, 0}, {51 << 1, 0}, //  41: 0000 0000 01x
	{52 << 1, 0}, {53 << 1, 0}, //  42: 0000 0000 10x
	{54 << 1, 0}, {55 << 1, 0}, //  43: 0000 0000 11x
	{56 << 1, 0}, {57 << 1, 0}, //  44: 0000 0001 00x
	{58 << 1, 0}, {59 << 1, 0}, //  45: 0000 0001 01x
	{60 << 1, 0}, {61 << 1, 0}, //  46: 0000 0001 10x
	{62 << 1, 0}, {63 << 1, 0}, //  47: 0000 0001 11x
	{-1, 0}, {64 << 1, 0}, //  48: 0000 0000 000x
	{65 << 1, 0}, {66 << 1, 0}, //  49: 0000 0000 001x
	{67 << 1, 0}, {68 << 1, 0}, //  50: 0000 0000 010x
	{69 << 1, 0}, {70 << 1, 0}, //  51: 0000 0000 011x
	{71 << 1, 0}, {72 << 1, 0}, //  52: 0000 0000 100x
	{73 << 1, 0}, {74 << 1, 0}, //  53: 0000 0000 101x
	{75 << 1, 0}, {76 << 1, 0}, //  54: 0000 0000 110x
	{77 << 1, 0}, {78 << 1, 0}, //  55: 0000 0000 111x
	{0, 0x000b}, {0, 0x0802}, //  56: 0000 0001 000x
	{0, 0x0403}, {0, 0x000a}, //  57: 0000 0001 001x
	{0, 0x0204}, {0, 0x0702}, //  58: 0000 0001 010x
	{0, 0x1501}, {0, 0x1401}, //  59: 0000 0001 011x
	{0, 0x0009}, {0, 0x1301}, //  60: 0000 0001 100x
	{0, 0x1202}, {0, 0x0105}, //  61: 0000 0001 101x
	{0, 0x0303}, {0, 0x0008}, //  62: 0000 0001 110x
	{0, 0x0602}, {0, 0x1101}, //  63: 0000 0001 111x
	{79 << 1, 0}, {80 << 1, 0}, //  64: 0000 0000 0001x
	{81 << 1, 0}, {82 << 1, 0}, //  65: 0000 0000 0010x
	{83 << 1, 0}, {84 << 1, 0}, //  66: 0000 0000 0011x
	{85 << 1, 0}, {86 << 1, 0}, //  67: 0000 0000 0100x
	{87 << 1, 0}, {88 << 1, 0}, //  68: 0000 0000 0101x
	{89 << 1, 0}, {90 << 1, 0}, //  69: 0000 0000 0110x
	{91 << 1, 0}, {92 << 1, 0}, //  70: 0000 0000 0111x
	{0, 0x0a02}, {0, 0x0902}, //  71: 0000 0000 1000x
	{0, 0x0503}, {0, 0x0304}, //  72: 0000 0000 1001x
	{0, 0x0205}, {0, 0x0107}, //  73: 0000 0000 1010x
	{0, 0x0106}, {0, 0x000f}, //  74: 0000 0000 1011x
	{0, 0x000e}, {0, 0x000d}, //  75: 0000 0000 1100x
	{0, 0x000c}, {0, 0x1a01}, //  76: 0000 0000 1101x
	{0, 0x1901}, {0, 0x1801}, //  77: 0000 0000 1110x
	{0, 0x1701}, {0, 0x1601}, //  78: 0000 0000 1111x
	{93 << 1, 0}, {94 << 1, 0}, //  79: 0000 0000 0001 0x
	{95 << 1, 0}, {96 << 1, 0}, //  80: 0000 0000 0001 1x
	{97 << 1, 0}, {98 << 1, 0}, //  81: 0000 0000 0010 0x
	{99 << 1, 0}, {100 << 1, 0}, //  82: 0000 0000 0010 1x
	{101 << 1, 0}, {102 << 1, 0}, //  83: 0000 0000 0011 0x
	{103 << 1, 0}, {104 << 1, 0}, //  84: 0000 0000 0011 1x
	{0, 0x001f}, {0, 0x001e}, //  85: 0000 0000 0100 0x
	{0, 0x001d}, {0, 0x001c}, //  86: 0000 0000 0100 1x
	{0, 0x001b}, {0, 0x001a}, //  87: 0000 0000 0101 0x
	{0, 0x0019}, {0, 0x0018}, //  88: 0000 0000 0101 1x
	{0, 0x0017}, {0, 0x0016}, //  89: 0000 0000 0110 0x
	{0, 0x0015}, {0, 0x0014}, //  90: 0000 0000 0110 1x
	{0, 0x0013}, {0, 0x0012}, //  91: 0000 0000 0111 0x
	{0, 0x0011}, {0, 0x0010}, //  92: 0000 0000 0111 1x
	{105 << 1, 0}, {106 << 1, 0}, //  93: 0000 0000 0001 00x
	{107 << 1, 0}, {108 << 1, 0}, //  94: 0000 0000 0001 01x
	{109 << 1, 0}, {110 << 1, 0}, //  95: 0000 0000 0001 10x
	{111 << 1, 0}, {112 << 1, 0}, //  96: 0000 0000 0001 11x
	{0, 0x0028}, {0, 0x0027}, //  97: 0000 0000 0010 00x
	{0, 0x0026}, {0, 0x0025}, //  98: 0000 0000 0010 01x
	{0, 0x0024}, {0, 0x0023}, //  99: 0000 0000 0010 10x
	{0, 0x0022}, {0, 0x0021}, // 100: 0000 0000 0010 11x
	{0, 0x0020}, {0, 0x010e}, // 101: 0000 0000 0011 00x
	{0, 0x010d}, {0, 0x010c}, // 102: 0000 0000 0011 01x
	{0, 0x010b}, {0, 0x010a}, // 103: 0000 0000 0011 10x
	{0, 0x0109}, {0, 0x0108}, // 104: 0000 0000 0011 11x
	{0, 0x0112}, {0, 0x0111}, // 105: 0000 0000 0001 000x
	{0, 0x0110}, {0, 0x010f}, // 106: 0000 0000 0001 001x
	{0, 0x0603}, {0, 0x1002}, // 107: 0000 0000 0001 010x
	{0, 0x0f02}, {0, 0x0e02}, // 108: 0000 0000 0001 011x
	{0, 0x0d02}, {0, 0x0c02}, // 109: 0000 0000 0001 100x
	{0, 0x0b02}, {0, 0x1f01}, // 110: 0000 0000 0001 101x
	{0, 0x1e01}, {0, 0x1d01}, // 111: 0000 0000 0001 110x
	{0, 0x1c01}, {0, 0x1b01}, // 112: 0000 0000 0001 111x
}

var vlcCoeffB15 = []vlcUint{
	{1 << 1, 0}, {2 << 1, 0}, //   0: x
	{3 << 1, 0}, {4 << 1, 0}, //   1: 0x
	{0, 0x0001}, {5 << 1, 0}, //   2: 1x
	{6 << 1, 0}, {7 << 1, 0}, //   3: 00x
	{0, 0x0101}, {8 << 1, 0}, //   4: 01x
	{0, 0x0002}, {9 << 1, 0}, //   5: 11x
	{10 << 1, 0}, {11 << 1, 0}, //   6: 000x
	{12 << 1, 0}, {13 << 1, 0}, //   7: 001x
	{0, 0xfffe}, {0, 0x0003}, //   8: 011x
	{14 << 1, 0}, {15 << 1, 0}, //   9: 111x
	{16 << 1, 0}, {17 << 1, 0}, //  10: 0000x
	{18 << 1, 0}, {19 << 1, 0}, //  11: 0001x
	{20 << 1, 0}, {0, 0x0201}, //  12: 0010x
	{0, 0x0102}, {0, 0x0301}, //  13: 0011x
	{0, 0x0004}, {0, 0x0005}, //  14: 1110x
	{21 << 1, 0}, {22 << 1, 0}, //  15: 1111x
	{23 << 1, 0}, {0, 0xffff}, //  16: 0000 0x
	{24 << 1, 0}, {25 << 1, 0}, //  17: 0000 1x
	{0, 0x0007}, {0, 0x0006}, //  18: 0001 0x
	{0, 0x0401}, {0, 0x0501}, //  19: 0001 1x
	{26 << 1, 0}, {27 << 1, 0}, //  20: 0010 0x
	{28 << 1, 0}, {29 << 1, 0}, //  21: 1111 0x
	{30 << 1, 0}, {31 << 1, 0}, //  22: 1111 1x
	{32 << 1, 0}, {33 << 1, 0}, //  23: 0000 00x
	{0, 0x0701}, {0, 0x0801}, //  24: 0000 10x
	{0, 0x0601}, {0, 0x0202}, //  25: 0000 11x
	{34 << 1, 0}, {35 << 1, 0}, //  26: 0010 00x
	{36 << 1, 0}, {37 << 1, 0}, //  27: 0010 01x
	{0, 0x0901}, {0, 0x0103}, //  28: 1111 00x
	{0, 0x0a01}, {0, 0x0008}, //  29: 1111 01x
	{0, 0x0009}, {38 << 1, 0}, //  30: 1111 10x
	{39 << 1, 0}, {40 << 1, 0}, //  31: 1111 11x
	{41 << 1, 0}, {42 << 1, 0}, //  32: 0000 000x
	{43 << 1, 0}, {44 << 1, 0}, //  33: 0000 001x
	{0, 0x0105}, {0, 0x0b01}, //  34: 0010 000x
	{0, 0x000b}, {0, 0x000a}, //  35: 0010 001x
	{0, 0x0d01}, {0, 0x0c01}, //  36: 0010 010x
	{0, 0x0302}, {0, 0x0104}, //  37: 0010 011x
	{0, 0x000c}, {0, 0x000d}, //  38: 1111 101x
	{0, 0x0203}, {0, 0x0402}, //  39: 1111 110x
	{0, 0x000e}, {0, 0x000f}, //  40: 1111 111x
	{45 << 1, 0}, {46 << 1, 0}, //  41: 0000 0000x
	{47 << 1, 0}, {48 << 1, 0}, //  42: 0000 0001x
	{0, 0x0502}, {0, 0x0e01}, //  43: 0000 0010x
	{49 << 1, 0}, {0, 0x0f01}, //  44: 0000 0011x
	{50 << 1, 0}, {51 << 1, 0}, //  45: 0000 0000 0x
	{52 << 1, 0}, {53 << 1, 0}, //  46: 0000 0000 1x
	{54 << 1, 0}, {55 << 1, 0}, //  47: 0000 0001 0x
	{56 << 1, 0}, {57 << 1, 0}, //  48: 0000 0001 1x
	{0, 0x0204}, {0, 0x1001}, //  49: 0000 0011 0x
	{58 << 1, 0}, {59 << 1, 0}, //  50: 0000 0000 00x
	{60 << 1, 0}, {61 << 1, 0}, //  51: 0000 0000 01x
	{62 << 1, 0}, {63 << 1, 0}, //  52: 0000 0000 10x
	{64 << 1, 0}, {65 << 1, 0}, //  53: 0000 0000 11x
	{66 << 1, 0}, {67 << 1, 0}, //  54: 0000 0001 00x
	{68 << 1, 0}, {69 << 1, 0}, //  55: 0000 0001 01x
	{70 << 1, 0}, {71 << 1, 0}, //  56: 0000 0001 10x
	{72 << 1, 0}, {73 << 1, 0}, //  57: 0000 0001 11x
	{-1, 0}, {74 << 1, 0}, //  58: 0000 0000 000x
	{75 << 1, 0}, {76 << 1, 0}, //  59: 0000 0000 001x
	{77 << 1, 0}, {78 << 1, 0}, //  60: 0000 0000 010x
	{79 << 1, 0}, {80 << 1, 0}, //  61: 0000 0000 011x
	{81 << 1, 0}, {82 << 1, 0}, //  62: 0000 0000 100x
	{83 << 1, 0}, {84 << 1, 0}, //  63: 0000 0000 101x
	{-1, 0}, {85 << 1, 0}, //  64: 0000 0000 110x
	{86 << 1, 0}, {87 << 1, 0}, //  65: 0000 0000 111x
	{-1, 0}, {0, 0x0802}, //  66: 0000 0001 000x
	{0, 0x0403}, {-1, 0}, //  67: 0000 0001 001x
	{-1, 0}, {0, 0x0702}, //  68: 0000 0001 010x
	{0, 0x1501}, {0, 0x1401}, //  69: 0000 0001 011x
	{-1, 0}, {0, 0x1301}, //  70: 0000 0001 100x
	{0, 0x1202}, {-1, 0}, //  71: 0000 0001 101x
	{0, 0x0303}, {-1, 0}, //  72: 0000 0001 110x
	{0, 0x0602}, {0, 0x1101}, //  73: 0000 0001 111x
	{88 << 1, 0}, {89 << 1, 0}, //  74: 0000 0000 0001x
	{90 << 1, 0}, {91 << 1, 0}, //  75: 0000 0000 0010x
	{92 << 1, 0}, {93 << 1, 0}, //  76: 0000 0000 0011x
	{94 << 1, 0}, {95 << 1, 0}, //  77: 0000 0000 0100x
	{96 << 1, 0}, {97 << 1, 0}, //  78: 0000 0000 0101x
	{98 << 1, 0}, {99 << 1, 0}, //  79: 0000 0000 0110x
	{100 << 1, 0}, {101 << 1, 0}, //  80: 0000 0000 0111x
	{0, 0x0a02}, {0, 0x0902}, //  81: 0000 0000 1000x
	{0, 0x0503}, {0, 0x0304}, //  82: 0000 0000 1001x
	{0, 0x0205}, {0, 0x0107}, //  83: 0000 0000 1010x
	{0, 0x0106}, {-1, 0}, //  84: 0000 0000 1011x
	{-1, 0}, {0, 0x1a01}, //  85: 0000 0000 1101x
	{0, 0x1901}, {0, 0x1801}, //  86: 0000 0000 1110x
	{0, 0x1701}, {0, 0x1601}, //  87: 0000 0000 1111x
	{102 << 1, 0}, {103 << 1, 0}, //  88: 0000 0000 0001 0x
	{104 << 1, 0}, {105 << 1, 0}, //  89: 0000 0000 0001 1x
	{106 << 1, 0}, {107 << 1, 0}, //  90: 0000 0000 0010 0x
	{108 << 1, 0}, {109 << 1, 0}, //  91: 0000 0000 0010 1x
	{110 << 1, 0}, {111 << 1, 0}, //  92: 0000 0000 0011 0x
	{112 << 1, 0}, {113 << 1, 0}, //  93: 0000 0000 0011 1x
	{0, 0x001f}, {0, 0x001e}, //  94: 0000 0000 0100 0x
	{0, 0x001d}, {0, 0x001c}, //  95: 0000 0000 0100 1x
	{0, 0x001b}, {0, 0x001a}, //  96: 0000 0000 0101 0x
	{0, 0x0019}, {0, 0x0018}, //  97: 0000 0000 0101 1x
	{0, 0x0017}, {0, 0x0016}, //  98: 0000 0000 0110 0x
	{0, 0x0015}, {0, 0x0014}, //  99: 0000 0000 0110 1x
	{0, 0x0013}, {0, 0x0012}, // 100: 0000 0000 0111 0x
	{0, 0x0011}, {0, 0x0010}, // 101: 0000 0000 0111 1x
	{114 << 1, 0}, {115 << 1, 0}, // 102: 0000 0000 0001 00x
	{116 << 1, 0}, {117 << 1, 0}, // 103: 0000 0000 0001 01x
	{118 << 1, 0}, {119 << 1, 0}, // 104: 0000 0000 0001 10x
	{120 << 1, 0}, {121 << 1, 0}, // 105: 0000 0000 0001 11x
	{0, 0x0028}, {0, 0x0027}, // 106: 0000 0000 0010 00x
	{0, 0x0026}, {0, 0x0025}, // 107: 0000 0000 0010 01x
	{0, 0x0024}, {0, 0x0023}, // 108: 0000 0000 0010 10x
	{0, 0x0022}, {0, 0x0021}, // 109: 0000 0000 0010 11x
	{0, 0x0020}, {0, 0x010e}, // 110: 0000 0000 0011 00x
	{0, 0x010d}, {0, 0x010c}, // 111: 0000 0000 0011 01x
	{0, 0x010b}, {0, 0x010a}, // 112: 0000 0000 0011 10x
	{0, 0x0109}, {0, 0x0108}, // 113: 0000 0000 0011 11x
	{0, 0x0112}, {0, 0x0111}, // 114: 0000 0000 0001 000x
	{0, 0x0110}, {0, 0x010f}, // 115: 0000 0000 0001 001x
	{0, 0x0603}, {0, 0x1002}, // 116: 0000 0000 0001 010x
	{0, 0x0f02}, {0, 0x0e02}, // 117: 0000 0000 0001 011x
	{0, 0x0d02}, {0, 0x0c02}, // 118: 0000 0000 0001 100x
	{0, 0x0b02}, {0, 0x1f01}, // 119: 0000 0000 0001 101x
	{0, 0x1e01}, {0, 0x1d01}, // 120: 0000 0000 0001 110x
	{0, 0x1c01}, {0, 0x1b01}, // 121: 0000 0000 0001 111x
}

var vlcCoeff = [2][]vlcUint{
	vlcCoeffB14,
	vlcCoeffB15,
}
