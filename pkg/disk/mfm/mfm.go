/*
   fluxdisk - floppy track bitstream analysis & synthesis
   Copyright (c) 2021, Alexander Vollschwitz

   This file is part of fluxdisk.

   fluxdisk is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   fluxdisk is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with fluxdisk. If not, see <http://www.gnu.org/licenses/>.
*/

/*
	Package mfm holds the bit level helpers for Modified Frequency Modulation.
	An MFM cell pair consists of a clock bit followed by a data bit, most
	significant pair first. The clock bit is set only between two zero data
	bits.
*/
package mfm

// mask selecting the data bits of a raw MFM word
const DataMask = 0x55555555

// DecodeByte strips the clock bits from a 16 bit raw window and returns the 8
// data bits it carries. Any input decodes; validity is up to the caller.
func DecodeByte(raw uint16) byte {
	return byte(DecodeWord(uint32(raw)))
}

// DecodeWord strips the clock bits from a 32 bit raw window and returns the 16
// data bits it carries.
func DecodeWord(raw uint32) uint16 {
	var ret uint16
	for ix := 15; ix >= 0; ix-- {
		ret = ret<<1 | uint16((raw>>(uint(ix)*2))&1)
	}
	return ret
}

/*
	Encode MFM-encodes the lowest bits data bits of data, most significant data
	bit first, and returns the resulting 2*bits cells right-aligned. prev is the
	cell emitted right before, which decides the first clock bit. bits must not
	exceed 32.
*/
func Encode(prev uint32, data uint32, bits int) uint64 {
	var ret uint64
	last := prev & 1
	for ix := bits - 1; ix >= 0; ix-- {
		d := (data >> uint(ix)) & 1
		var c uint32
		if last == 0 && d == 0 {
			c = 1
		}
		ret = ret<<2 | uint64(c<<1|d)
		last = d
	}
	return ret
}

// Odd returns the odd bits (31, 29, ... 1) of a long, as stored in the odd
// half of an odd/even encoded block.
func Odd(l uint32) uint16 {
	return DecodeWord(l >> 1)
}

// Even returns the even bits (30, 28, ... 0) of a long.
func Even(l uint32) uint16 {
	return DecodeWord(l)
}

// Interleave reconstructs a long from its odd and even halves.
func Interleave(odd, even uint16) uint32 {
	var ret uint32
	for ix := 15; ix >= 0; ix-- {
		ret = ret<<2 |
			uint32((odd>>uint(ix))&1)<<1 | uint32((even>>uint(ix))&1)
	}
	return ret
}

// Checksum computes the AmigaDOS checksum over the given data longs. This is
// the XOR of all odd and even MFM longs, masked to their data bits.
func Checksum(longs ...uint32) uint32 {
	var sum uint32
	for _, l := range longs {
		sum ^= (l >> 1) ^ l
	}
	return sum & DataMask
}
