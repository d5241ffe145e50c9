package taskform

// CategoryModal is the inline "new category" dialog
type CategoryModal struct {
	Open bool
	Text string
}

// Show opens the modal, keeping any text typed earlier
func (m CategoryModal) Show() CategoryModal {
	m.Open = true
	return m
}

// Hide closes the modal
func (m CategoryModal) Hide() CategoryModal {
	m.Open = false
	return m
}

// SaveDisabled reports whether save is a no-op
func (m CategoryModal) SaveDisabled() bool {
	return len(m.Text) == 0
}

// Save returns the label to create and the closed modal. The modal closes
// whether or not the create later succeeds. ok is false when save is disabled,
// in which case nothing changes.
func (m CategoryModal) Save() (item string, next CategoryModal, ok bool) {
	if m.SaveDisabled() {
		return "", m, false
	}
	return m.Text, m.Hide(), true
}
