package svchost

import (
	"testing"
	"time"
)

// BenchmarkDecodeRunitStatus measures decoding of supervise status records
func BenchmarkDecodeRunitStatus(b *testing.B) {
	data := encodeRunitStatus(1234, 'u', time.Now())

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := decodeRunitStatus(data); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkParseArguments measures parsing of a typical install invocation
func BenchmarkParseArguments(b *testing.B) {
	tokens := []string{"/install", "/serviceName=Demo", "/instance=One", `/description:"Queue worker"`, "/startMode=Manual"}

	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := ParseArguments(tokens); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkCommandLine measures canonical serialization and re-parsing
func BenchmarkCommandLine(b *testing.B) {
	cfg, err := NewBuilder().
		WithServiceName("Demo").
		WithInstance("One").
		WithDescription(`Handles "C:\queue"`).
		WithDelayedAutoStart(true).
		Build()
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := ParseCommandLine(cfg.CommandLine()); err != nil {
			b.Fatal(err)
		}
	}
}
