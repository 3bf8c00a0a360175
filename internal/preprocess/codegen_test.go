package preprocess

import (
	"reflect"
	"strings"
	"testing"
)

// TestCodeGenSandbox verifies the restricted surface of the embedded VM.
func TestCodeGenSandbox(t *testing.T) {
	tests := []struct {
		name    string
		script  []string
		wantErr bool
		want    []string
	}{
		{
			name:   "string table math libraries are available",
			script: []string{"emit(string.upper(\"abc\") .. tostring(math.max(1, 2)) .. table.concat({\"x\", \"y\"}))"},
			want:   []string{"ABC2xy"},
		},
		{
			name:    "os library is absent",
			script:  []string{"os.execute(\"true\")"},
			wantErr: true,
		},
		{
			name:    "io library is absent",
			script:  []string{"io.open(\"/etc/hostname\")"},
			wantErr: true,
		},
		{
			name:    "code loading is blocked",
			script:  []string{"loadstring(\"return 1\")()"},
			wantErr: true,
		},
		{
			name:    "metatable access is blocked",
			script:  []string{"setmetatable({}, {})"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gen CodeGen
			gen.Begin(1)
			for _, line := range tt.script {
				gen.Append(line)
			}

			var got []string
			err := gen.Execute("", func(s string) { got = append(got, s) })
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("emitted = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestCodeGenTaskGlobal verifies the script sees the active task name.
func TestCodeGenTaskGlobal(t *testing.T) {
	var gen CodeGen
	gen.Begin(1)
	gen.Append("if task == \"\" then emit(\"bare\") else emit(task) end")

	var got []string
	if err := gen.Execute("cover", func(s string) { got = append(got, s) }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != "cover" {
		t.Errorf("emitted = %q, want [cover]", got)
	}
}

// TestCodeGenEmitArgument verifies emit rejects non-string arguments with a
// script error rather than a panic.
func TestCodeGenEmitArgument(t *testing.T) {
	var gen CodeGen
	gen.Begin(3)
	gen.Append("emit({})")

	err := gen.Execute("", func(string) {})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Errorf("error %q does not name the region's begin line", err)
	}
}
