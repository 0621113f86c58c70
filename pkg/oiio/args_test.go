package oiio

import (
	"reflect"
	"strings"
	"testing"
)

func TestExport(t *testing.T) {
	tests := []struct {
		name string
		path string
		opts ExportOpts
		want []string
	}{
		{
			name: "exr",
			path: "out.exr",
			opts: ExportOpts{Bitdepth: "half", Compression: "zip"},
			want: []string{"-d", "half", "--compression", "zip", "-o", "out.exr"},
		},
		{
			name: "jpeg with srgb encoding",
			path: "out.jpg",
			opts: ExportOpts{Bitdepth: "uint8", Compression: "jpeg:98", SRGBEncoded: true},
			want: []string{
				"-d", "uint8",
				"--colorconvert", "linear", "sRGB",
				"--compression", "jpeg:98",
				"-o", "out.jpg",
			},
		},
		{
			name: "no compression",
			path: "out.tif",
			opts: ExportOpts{Bitdepth: "float"},
			want: []string{"-d", "float", "-o", "out.tif"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Export(tt.path, tt.opts)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Export() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDisplayConvert(t *testing.T) {
	got := DisplayConvert("/cfg/config.ocio", "Linear Rec.709 (sRGB)", "sRGB - 2.2", "AgX", "")
	want := []string{
		"--colorconfig", "/cfg/config.ocio",
		`--ociodisplay:from="Linear Rec.709 (sRGB)"`,
		"sRGB - 2.2",
		"AgX",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DisplayConvert() = %v, want %v", got, want)
	}
}

func TestDisplayConvertWithLook(t *testing.T) {
	got := DisplayConvert("/cfg/config.ocio", "lin_rec709", "Rec.1886", "TCAMv3", "ARRI Look")
	if got[2] != `--ociolook:from="lin_rec709":to="lin_rec709"` || got[3] != "ARRI Look" {
		t.Errorf("look arguments = %v", got[2:4])
	}
	if got[4] != `--ociodisplay:from="lin_rec709"` {
		t.Errorf("display argument = %v", got[4])
	}
}

func TestColorMatrix(t *testing.T) {
	// ACES2065-1 to sRGB
	got := ColorMatrix([9]float64{
		2.521649, -1.136889, -0.384918,
		-0.275214, 1.369705, -0.094392,
		-0.015925, -0.147806, 1.163806,
	})
	if got[0] != "--ccmatrix:transpose=1" {
		t.Errorf("got[0] = %q", got[0])
	}
	want := "2.521649,-1.136889,-0.384918,-0.275214,1.369705,-0.094392,-0.015925,-0.147806,1.163806"
	if got[1] != want {
		t.Errorf("matrix = %q, want %q", got[1], want)
	}
}

func TestExpoBands(t *testing.T) {
	args, err := ExpoBands("set.exr", ExpoBandsOpts{
		BandNumber:     7,
		ExposureOffset: 2,
		BandWidth:      0.2,
		ExtraArgs:      []string{"--colorconfig", "c.ocio"},
	})
	if err != nil {
		t.Fatalf("ExpoBands() failed: %v", err)
	}

	joined := strings.Join(args, " ")

	// 7 bands, one input each
	if n := strings.Count(joined, "-i set.exr"); n != 7 {
		t.Errorf("input count = %d, want 7", n)
	}
	// exposure labels from -6 to +6 in steps of 2
	for _, label := range []string{"-6", "-4", "-2", "+0", "+2", "+4", "+6"} {
		if !strings.Contains(joined, " "+label) {
			t.Errorf("missing exposure label %q", label)
		}
	}
	// gains are powers of two rounded to 2 decimals
	for _, gain := range []string{"0.02", "0.06", "0.25", "1", "4", "16", "64"} {
		if !strings.Contains(joined, "--mulc "+gain) {
			t.Errorf("missing gain %q", gain)
		}
	}
	// extra args repeated per band
	if n := strings.Count(joined, "--colorconfig c.ocio"); n != 7 {
		t.Errorf("extra args count = %d, want 7", n)
	}
	// band width 0.2 cuts a fifth of the width
	if !strings.Contains(joined, "{TOP.width//5.00}x{TOP.height}+0+0") {
		t.Errorf("cut expression missing: %s", args)
	}
	// final strip assembly
	if args[len(args)-2] != "--mosaic" || args[len(args)-1] != "7x1" {
		t.Errorf("trailing mosaic = %v", args[len(args)-2:])
	}
}

func TestExpoBandsOffset(t *testing.T) {
	args, err := ExpoBands("set.exr", ExpoBandsOpts{
		BandNumber:     3,
		ExposureOffset: 1,
		BandWidth:      0.5,
		BandXOffset:    0.25,
	})
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "{TOP.width//2.00}x{TOP.height}+{TOP.width//4.00}+0") {
		t.Errorf("cut expression missing offset: %s", args)
	}
}

func TestExpoBandsRejectsEvenCount(t *testing.T) {
	_, err := ExpoBands("set.exr", ExpoBandsOpts{BandNumber: 6, ExposureOffset: 2, BandWidth: 0.2})
	if err == nil {
		t.Error("expected error for even band number")
	}
}

func TestAutoMosaic(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{1, "1x1"},
		{2, "2x1"},
		{4, "2x2"},
		{5, "3x2"},
		{9, "3x3"},
		{10, "4x3"},
		{12, "4x3"},
	}
	for _, tt := range tests {
		got := AutoMosaic(tt.count)
		if got[1] != tt.want {
			t.Errorf("AutoMosaic(%d) = %q, want %q", tt.count, got[1], tt.want)
		}
	}
}
