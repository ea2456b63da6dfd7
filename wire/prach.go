package wire

import "github.com/oran-ofh/gnbdu-ofh-tx/ofh"

// PRACHConfig describes the inputs needed to derive the section type 3
// fields for one PRACH occasion (spec §4.10.2).
type PRACHConfig struct {
	PUSCHSCSkHz    uint16 // e.g. 30
	PRACHSCSkHz    uint16 // e.g. 1 (Hz granularity handled via PRACHSCSHz below when sub-kHz)
	PRACHSCSHz     uint32 // exact PRACH subcarrier spacing in Hz, e.g. 1250 for 1.25kHz
	RBOffset       uint16
	NofRBRA        uint16 // nof_rb_ra: PRBs (at PUSCH SCS granularity) the RACH occasion spans
	RUNofPRBs      uint16 // total RU channel bandwidth in PRBs, at PUSCH SCS
	PreambleReps   uint8  // numSymbol
	CyclicPrefixNs uint32 // Tcp in nanoseconds
}

// derived PRACH section type 3 fields (spec §4.10.2, §8 scenario 3).
type PRACHDerived struct {
	FilterIndex     ofh.FilterIndex
	SCSkHz          uint16
	NofPRB          uint16
	NumSymbol       uint8
	FFTSize         uint16
	TimeOffset      uint32
	FrequencyOffset int32
}

// sampleRate30_72MHz is the reference sampling rate (30.72 Msps) used to
// convert the cyclic prefix duration into a sample-count time_offset.
const sampleRate30_72MHz = 30_720_000

// fftSizeDefault is the FFT size used for PRACH processing irrespective of
// numerology (spec §6 "OFH C-Plane section type 3": fft_size=4096).
const fftSizeDefault = 4096

// FilterIndexForPRACHSCS maps a PRACH subcarrier spacing in Hz to the
// section type 3 filter index (spec §4.10.2 table).
func FilterIndexForPRACHSCS(scsHz uint32) ofh.FilterIndex {
	switch scsHz {
	case 1250:
		return ofh.FilterPRACH1p25kHz
	case 5000:
		return ofh.FilterPRACH5kHz
	case 15000:
		return ofh.FilterPRACHShort15kHz
	case 30000:
		return ofh.FilterPRACHShort30kHz
	default:
		return ofh.FilterStandardChannel
	}
}

// DerivePRACH computes the section type 3 fields for one PRACH occasion.
//
// nof_prb scales nof_rb_ra from PUSCH-SCS granularity to PRACH-SCS
// granularity by the ratio of subcarrier spacings (K = SCS_PUSCH /
// SCS_PRACH). time_offset converts the cyclic prefix duration into samples
// at the 30.72 Msps reference rate. frequency_offset is derived from the
// gap between the center of the RU channel and the lower edge of the PRACH
// occasion (itself offset from the RU's lower edge by rb_offset PRBs at
// PUSCH-SCS granularity), expressed in half-PRACH-SCS units (spec §4.10.2):
//
//	freq_offset = -(total_bw_Hz/2 - rb_offset*K*12*prach_scs_Hz) / (prach_scs_Hz/2)
func DerivePRACH(c PRACHConfig) PRACHDerived {
	k := uint32(c.PUSCHSCSkHz) * 1000 / c.PRACHSCSHz
	nofPRB := c.NofRBRA * uint16(k)

	timeOffset := uint32((uint64(c.CyclicPrefixNs) * sampleRate30_72MHz) / 1_000_000_000)

	totalBWHz := int64(c.RUNofPRBs) * 12 * int64(c.PUSCHSCSkHz) * 1000
	rbOffsetHz := int64(c.RBOffset) * int64(k) * 12 * int64(c.PRACHSCSHz)
	freqOffset := int32(-(totalBWHz/2 - rbOffsetHz) / (int64(c.PRACHSCSHz) / 2))

	return PRACHDerived{
		FilterIndex:     FilterIndexForPRACHSCS(c.PRACHSCSHz),
		SCSkHz:          uint16(c.PRACHSCSHz / 1000),
		NofPRB:          nofPRB,
		NumSymbol:       c.PreambleReps,
		FFTSize:         fftSizeDefault,
		TimeOffset:      timeOffset,
		FrequencyOffset: freqOffset,
	}
}
