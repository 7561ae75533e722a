package faculty

import "golang.org/x/crypto/bcrypt"

type Faculty struct {
	FacultyID   string `json:"faculty_id" db:"faculty_id"`
	Name        string `json:"name" db:"name"`
	Email       string `json:"email" db:"email"`
	PhoneNumber string `json:"phone_number" db:"phone_number"`
	PINHash     []byte `json:"-" db:"pin_hash"`
}

func (f *Faculty) SetPIN(pin string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	f.PINHash = hash
	return nil
}

func (f *Faculty) CheckPIN(pin string) error {
	return bcrypt.CompareHashAndPassword(f.PINHash, []byte(pin))
}
