package nss

import "testing"

func TestDescriptorTable(t *testing.T) {
	tests := []struct {
		backend Backend
		name    string
		path    string
	}{
		{BackendFiles, "files", "/usr/lib/x86_64-linux-gnu/libnss_files.so.2"},
		{BackendSSS, "sss", "/usr/lib/x86_64-linux-gnu/libnss_sss.so.2"},
		{BackendWinbind, "winbind", "/usr/lib/x86_64-linux-gnu/libnss_winbind.so.2"},
	}
	for _, tt := range tests {
		d, ok := tt.backend.descriptor()
		if !ok {
			t.Fatalf("no descriptor for %s", tt.backend)
		}
		if d.Name != tt.name {
			t.Errorf("descriptor name = %q, want %q", d.Name, tt.name)
		}
		if d.Path != tt.path {
			t.Errorf("descriptor path = %q, want %q", d.Path, tt.path)
		}
	}

	if _, ok := BackendAny.descriptor(); ok {
		t.Error("BackendAny should not have a descriptor")
	}
}

func TestBackendNames(t *testing.T) {
	if got := BackendFiles.String(); got != "files" {
		t.Errorf("String() = %q, want files", got)
	}
	if got := BackendWinbind.SourceTag(); got != "WINBIND" {
		t.Errorf("SourceTag() = %q, want WINBIND", got)
	}
	if got := BackendSSS.SourceTag(); got != "SSS" {
		t.Errorf("SourceTag() = %q, want SSS", got)
	}
	if got := BackendAny.SourceTag(); got != "" {
		t.Errorf("SourceTag() = %q, want empty", got)
	}
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in   string
		want Backend
		ok   bool
	}{
		{"", BackendAny, true},
		{"any", BackendAny, true},
		{"files", BackendFiles, true},
		{"sss", BackendSSS, true},
		{"winbind", BackendWinbind, true},
		{"ldap", BackendAny, false},
	}
	for _, tt := range tests {
		got, ok := ParseBackend(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseBackend(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestOperationSymbols(t *testing.T) {
	tests := []struct {
		op     Operation
		symbol string
	}{
		{OpGetPwNam, "_nss_files_getpwnam_r"},
		{OpGetPwUid, "_nss_files_getpwuid_r"},
		{OpSetPwEnt, "_nss_files_setpwent"},
		{OpGetPwEnt, "_nss_files_getpwent_r"},
		{OpEndPwEnt, "_nss_files_endpwent"},
		{OpGetGrNam, "_nss_files_getgrnam_r"},
		{OpGetGrGid, "_nss_files_getgrgid_r"},
		{OpSetGrEnt, "_nss_files_setgrent"},
		{OpGetGrEnt, "_nss_files_getgrent_r"},
		{OpEndGrEnt, "_nss_files_endgrent"},
	}
	for _, tt := range tests {
		if got := tt.op.symbol("files"); got != tt.symbol {
			t.Errorf("symbol(%s) = %q, want %q", tt.op, got, tt.symbol)
		}
	}
}

func TestStatusFromCode(t *testing.T) {
	tests := []struct {
		code int32
		want Status
	}{
		{-2, StatusTryAgain},
		{-1, StatusUnavail},
		{0, StatusNotFound},
		{1, StatusSuccess},
		{2, StatusReturn},
		{999, StatusUnavail},
		{-17, StatusUnavail},
	}
	for _, tt := range tests {
		if got := statusFromCode(tt.code); got != tt.want {
			t.Errorf("statusFromCode(%d) = %s, want %s", tt.code, got, tt.want)
		}
	}
}

func TestErrorRecoverable(t *testing.T) {
	tests := []struct {
		err  *Error
		want bool
	}{
		{&Error{Code: CodeLoad}, true},
		{&Error{Code: CodeUnavailable}, true},
		{&Error{Code: CodeOperation, Status: StatusUnavail}, true},
		{&Error{Code: CodeOperation, Status: StatusTryAgain}, false},
		{&Error{Code: CodeEncoding}, false},
		{&Error{Code: CodeNotFound}, false},
	}
	for _, tt := range tests {
		if got := tt.err.recoverable(); got != tt.want {
			t.Errorf("recoverable(%s) = %v, want %v", tt.err.Code, got, tt.want)
		}
	}
}
