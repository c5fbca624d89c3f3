package wallet

import "fmt"

// OwnerTypeForRole maps an authenticated role to the wallet owner type it
// spends from. Doctor-side staff share the doctor wallet; clinic staff and
// agents share the clinic wallet. Unmapped roles (including admin) are an
// explicit error — never a silent default.
func OwnerTypeForRole(role string) (OwnerType, error) {
	switch role {
	case "doctor", "doctorStaff":
		return OwnerTypeDoctor, nil
	case "clinic", "staff", "agent":
		return OwnerTypeClinic, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnmappedRole, role)
	}
}
