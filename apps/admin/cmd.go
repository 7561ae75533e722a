package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/nileshsabnis10/attendance/core"
	"github.com/nileshsabnis10/attendance/core/course"
	"github.com/nileshsabnis10/attendance/core/faculty"
	"github.com/nileshsabnis10/attendance/core/roster"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf        *core.Config
	db          *sql.DB
	facultyRepo faculty.Repository
	rosterRepo  roster.Repository
	courseRepo  course.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate [up|down|status|...]                         - run database migrations")
	fmt.Println("  addfaculty -id ID -name NAME -phone PHONE [-email E] - add or update a faculty member; the PIN will be prompted next")
	fmt.Println("  wipe -entity students|faculty|courses                - delete every record of the entity; the danger-zone password will be prompted next")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addFacultyCmd := flag.NewFlagSet("addfaculty", flag.ExitOnError)
	addFacultyID := addFacultyCmd.String("id", "", "The faculty ID.")
	addFacultyName := addFacultyCmd.String("name", "", "The member's full name.")
	addFacultyPhone := addFacultyCmd.String("phone", "", "The member's phone number.")
	addFacultyEmail := addFacultyCmd.String("email", "", "The member's email address (optional).")

	wipeCmd := flag.NewFlagSet("wipe", flag.ExitOnError)
	wipeEntity := wipeCmd.String("entity", "", "One of: students, faculty, courses.")

	switch args[1] {
	case "migrate":
		return cli.migrate(args[2:])
	case "addfaculty":
		if err := addFacultyCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addFacultyID == "" || *addFacultyName == "" || *addFacultyPhone == "" {
			addFacultyCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter 4-digit PIN:")
		pin, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pin) == 0 {
			addFacultyCmd.Usage()
			return errHelp
		}
		return cli.addFaculty(*addFacultyID, *addFacultyName, *addFacultyPhone, *addFacultyEmail, string(pin))
	case "wipe":
		if err := wipeCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *wipeEntity == "" {
			wipeCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter danger-zone password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		return cli.wipe(*wipeEntity, string(pwd))
	default:
		cli.printUsage()
		return errHelp
	}
}
