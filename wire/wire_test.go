package wire

import (
	"testing"

	"github.com/oran-ofh/gnbdu-ofh-tx/ofh"
)

func TestBuildEthernetNoVLAN(t *testing.T) {
	out := make([]byte, 32)
	h := EthernetHeader{
		DstMAC: [6]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06},
		SrcMAC: [6]byte{0x11, 0x12, 0x13, 0x14, 0x15, 0x16},
	}
	n := BuildEthernet(out, h)
	if n != 14 {
		t.Fatalf("n = %d, want 14", n)
	}
	if got := uint16(out[12])<<8 | uint16(out[13]); got != EtherType {
		t.Errorf("ethertype = %#x, want %#x", got, EtherType)
	}
}

func TestBuildEthernetWithVLAN(t *testing.T) {
	out := make([]byte, 32)
	h := EthernetHeader{VLANTag: 0x8100, VLANTCI: 0x0042}
	n := BuildEthernet(out, h)
	if n != 18 {
		t.Fatalf("n = %d, want 18", n)
	}
	if got := uint16(out[16])<<8 | uint16(out[17]); got != EtherType {
		t.Errorf("ethertype offset wrong: got %#x", got)
	}
}

func TestBuildECPRISequenceIDLayout(t *testing.T) {
	out := make([]byte, ecpriHeaderLen)
	n := BuildECPRI(out, ECPRIHeader{MsgType: ECPRIMsgTypeIQData, EAxC: 3, SeqID: 0x5A, PayloadSz: 100})
	if n != ecpriHeaderLen {
		t.Fatalf("n = %d, want %d", n, ecpriHeaderLen)
	}
	if out[1] != ECPRIMsgTypeIQData {
		t.Errorf("msg type = %d, want %d", out[1], ECPRIMsgTypeIQData)
	}
	if out[6] != 0x5A {
		t.Errorf("seq high byte = %#x, want 0x5a", out[6])
	}
	if out[7] != 0x80 {
		t.Errorf("seq low byte = %#x, want 0x80 (E=1, subseq=0)", out[7])
	}
}

func TestBuildSectionType1RoundTrippableFields(t *testing.T) {
	out := make([]byte, 32)
	p := SectionType1Params{
		Radio: RadioHeader{
			Direction:   ofh.Downlink,
			Slot:        ofh.SlotPoint{Numerology: 1, SFN: 100, Slot: 3},
			FilterIndex: ofh.FilterStandardChannel,
			StartSymbol: 2,
		},
		NofPRB:     273,
		NofSymbols: 14,
	}
	n := BuildSectionType1(out, p)
	if n != sectionType1Len {
		t.Fatalf("n = %d, want %d", n, sectionType1Len)
	}
	gotPRB := uint16(out[6])<<8 | uint16(out[7])
	if gotPRB != 273 {
		t.Errorf("nof_prb = %d, want 273", gotPRB)
	}
}

func TestBuildSectionType3PRACHLength(t *testing.T) {
	out := make([]byte, 64)
	p := SectionType3Params{
		Radio:           RadioHeader{Direction: ofh.Uplink, Slot: ofh.SlotPoint{Slot: 1}},
		NofPRB:          144,
		NumSymbol:       4,
		SCSkHz:          1,
		TimeOffset:      984,
		FFTSize:         4096,
		FrequencyOffset: -3200,
	}
	n := BuildSectionType3PRACH(out, p)
	if n != sectionType3Len {
		t.Fatalf("n = %d, want %d", n, sectionType3Len)
	}
}

func TestBuildUPlaneSectionAppendsCompressedPayload(t *testing.T) {
	out := make([]byte, 64)
	payload := []byte{1, 2, 3, 4, 5}
	p := UPlaneSectionParams{
		Radio:      RadioHeader{Direction: ofh.Downlink},
		StartPRB:   0,
		NofPRB:     1,
		SymbolID:   7,
		Comp:       ofh.CompressionParams{Type: ofh.CompBFP, DataWidth: 9},
		Compressed: payload,
	}
	n := BuildUPlaneSection(out, p)
	if n != uPlaneHeaderLen+len(payload) {
		t.Fatalf("n = %d, want %d", n, uPlaneHeaderLen+len(payload))
	}
	got := out[uPlaneHeaderLen:n]
	for i, b := range payload {
		if got[i] != b {
			t.Errorf("payload[%d] = %d, want %d", i, got[i], b)
		}
	}
}

func TestDerivePRACHFilterIndex(t *testing.T) {
	d := DerivePRACH(PRACHConfig{
		PUSCHSCSkHz:  30,
		PRACHSCSHz:   1250,
		NofRBRA:      6,
		RUNofPRBs:    51,
		PreambleReps: 4,
	})
	if d.FilterIndex != ofh.FilterPRACH1p25kHz {
		t.Errorf("filter index = %v, want FilterPRACH1p25kHz", d.FilterIndex)
	}
	if d.NofPRB != 144 { // 6 * (30000/1250) = 6*24
		t.Errorf("nof_prb = %d, want 144", d.NofPRB)
	}
	if d.FFTSize != 4096 {
		t.Errorf("fft_size = %d, want 4096", d.FFTSize)
	}
	if d.FrequencyOffset != -14688 {
		t.Errorf("frequency_offset = %d, want -14688", d.FrequencyOffset)
	}
}

func TestDerivePRACHFrequencyOffsetWithRBOffset(t *testing.T) {
	d := DerivePRACH(PRACHConfig{
		PUSCHSCSkHz:  30,
		PRACHSCSHz:   1250,
		RBOffset:     2,
		NofRBRA:      6,
		RUNofPRBs:    51,
		PreambleReps: 4,
	})
	// k = 30000/1250 = 24; rb_offset term = 2*24*12*1250 = 720000
	// freq_offset = -((18360000/2 - 720000) / (1250/2)) = -((9180000-720000)/625) = -13536
	if d.FrequencyOffset != -13536 {
		t.Errorf("frequency_offset = %d, want -13536", d.FrequencyOffset)
	}
}
