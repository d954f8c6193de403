package entities

import "testing"

func TestParseRole(t *testing.T) {
	for input, expected := range map[string]Role{"nurse": RoleNurse, " PHARMACIST ": RolePharmacist, "Master": RoleMaster} {
		got, err := ParseRole(input)
		if err != nil {
			t.Fatalf("ParseRole(%q): %v", input, err)
		}
		if got != expected {
			t.Errorf("ParseRole(%q): expected %s, got %s", input, expected, got)
		}
	}
	if _, err := ParseRole("janitor"); err == nil {
		t.Error("Expected unknown role to fail")
	}
}

func TestRolePermissions(t *testing.T) {
	testCases := []struct {
		role    Role
		allowed []Permission
		denied  []Permission
	}{
		{RoleNurse, []Permission{PermRead}, []Permission{PermUpdate, PermForecast, PermAdmin}},
		{RolePharmacist, []Permission{PermRead, PermUpdate, PermForecast}, []Permission{PermAdmin}},
		{RoleMaster, []Permission{PermRead, PermUpdate, PermForecast, PermAdmin}, nil},
	}
	for _, tc := range testCases {
		for _, p := range tc.allowed {
			if !tc.role.Allows(p) {
				t.Errorf("%s should allow %s", tc.role, p)
			}
		}
		for _, p := range tc.denied {
			if tc.role.Allows(p) {
				t.Errorf("%s should not allow %s", tc.role, p)
			}
		}
	}

	perms := RoleNurse.Permissions()
	perms[0] = PermAdmin
	if RoleNurse.Allows(PermAdmin) {
		t.Error("Permissions must return a copy")
	}
}

func TestUserAccount_CanAndValidate(t *testing.T) {
	u := UserAccount{EmployeeID: "E1", Role: RoleMaster, Status: AccountActive}
	if err := u.Validate(); err != nil {
		t.Fatalf("Expected valid account: %v", err)
	}
	if !u.Can(PermAdmin) {
		t.Error("Active master should hold admin")
	}

	u.Status = AccountBlacklisted
	if u.Can(PermRead) {
		t.Error("Blacklisted account must hold nothing")
	}

	for _, bad := range []UserAccount{
		{Role: RoleNurse, Status: AccountActive},
		{EmployeeID: "E2", Role: "Janitor", Status: AccountActive},
		{EmployeeID: "E3", Role: RoleNurse, Status: "Suspended"},
	} {
		if err := bad.Validate(); err == nil {
			t.Errorf("Expected %+v to be invalid", bad)
		}
	}

	if s, err := ParseAccountStatus("blacklisted"); err != nil || s != AccountBlacklisted {
		t.Errorf("ParseAccountStatus: got %s, %v", s, err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	u := UserAccount{PasswordHash: hash}
	if !u.CheckPassword("correct horse") {
		t.Error("Expected password to match")
	}
	if u.CheckPassword("wrong") {
		t.Error("Expected wrong password to fail")
	}
	if (&UserAccount{}).CheckPassword("") {
		t.Error("Account without hash must never match")
	}
	if _, err := HashPassword(""); err == nil {
		t.Error("Expected empty password to be rejected")
	}
}
