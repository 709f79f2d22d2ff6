package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// Quick utility to generate a bcrypt hash for a password
// Usage: go run scripts/hash_password.go <password>
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run scripts/hash_password.go <password>")
		fmt.Println("Example: go run scripts/hash_password.go s3cure-adm1n-pass")
		os.Exit(1)
	}

	password := os.Args[1]

	// Generate bcrypt hash
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Printf("Error generating hash: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Password: %s\n", password)
	fmt.Printf("Bcrypt Hash: %s\n", string(hashedPassword))
	fmt.Printf("\nTo seed an admin in MongoDB, run:\n")
	fmt.Printf("db.users.insertOne({\n")
	fmt.Printf("  name: \"Administrator\",\n")
	fmt.Printf("  email: \"admin@civiclens.example.org\",\n")
	fmt.Printf("  password: \"%s\",\n", string(hashedPassword))
	fmt.Printf("  role: \"admin\",\n")
	fmt.Printf("  isActive: true,\n")
	fmt.Printf("  createdAt: new Date()\n")
	fmt.Printf("})\n")
}
