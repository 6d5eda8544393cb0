package main

import (
	"testing"

	"github.com/danderson/idl"
	"github.com/danderson/idl/internal/config"
	"github.com/google/go-cmp/cmp"
)

func TestSplitList(t *testing.T) {
	got := splitList("a.did,, b.did ,")
	want := []string{"a.did", " b.did "}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("splitList (-got+want):\n%s", diff)
	}
	if got := splitList(""); len(got) != 0 {
		t.Errorf("splitList(\"\") = %q, want empty", got)
	}
}

func TestReadInput(t *testing.T) {
	got, err := readInput([]string{"0x4449 444c\n0000"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "4449444c0000" {
		t.Errorf("readInput = %q, want 4449444c0000", got)
	}
}

func TestOutputOptions(t *testing.T) {
	cfg := config.Default()
	opts, err := outputOptions(cfg, "", "hex", "32:sha256", true)
	if err != nil {
		t.Fatal(err)
	}
	want := &idl.Options{
		BytesAs:   idl.BytesHex,
		LongBytes: &idl.LongBytes{MinLen: 32, Format: idl.BytesSHA256},
		Compact:   true,
	}
	if diff := cmp.Diff(opts, want); diff != "" {
		t.Errorf("outputOptions (-got+want):\n%s", diff)
	}

	if _, err := outputOptions(cfg, "", "base64", "", false); err == nil {
		t.Error("outputOptions with bad --bytes succeeded")
	}
	if _, err := outputOptions(cfg, "", "", "x:hex", false); err == nil {
		t.Error("outputOptions with bad --long-bytes succeeded")
	}
}

func TestEmptyPolicy(t *testing.T) {
	cfg := config.Default()
	if p, err := emptyPolicy("", cfg); err != nil || p != idl.EmptyIsZeroArity {
		t.Errorf("default policy = %v, %v, want zero", p, err)
	}
	if p, err := emptyPolicy("error", cfg); err != nil || p != idl.EmptyIsError {
		t.Errorf("flag policy = %v, %v, want error", p, err)
	}
	if _, err := emptyPolicy("sometimes", cfg); err == nil {
		t.Error("bad policy accepted")
	}
}
