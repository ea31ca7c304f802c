// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

// Command mpqdump is a thin CLI around package mpq: open an archive, list
// or extract files, or dump the CHK chunks inside an extracted scenario
// file.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/bodgit/sevenzip"

	"github.com/suprsokr/go-mpq"
	"github.com/suprsokr/go-mpq/chk"
)

func main() {
	log.SetFlags(0)

	var (
		listFlag    = flag.Bool("list", false, "list files in the archive")
		extractFlag = flag.String("extract", "", "extract the named file to stdout")
		chkFlag     = flag.String("chk", "", "parse the named file as a CHK chunk stream and print its chunks")
		unwrap7z    = flag.Bool("unwrap7z", false, "if the input path is a 7z container, extract the first .mpq member before opening")
		crcFlag     = flag.Bool("verify-sector-crc", false, "verify per-sector CRC32 where the SECTOR_CRC flag is set")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] archive.mpq\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	if *unwrap7z {
		tmp, err := unwrapSevenZip(path)
		if err != nil {
			log.Fatalf("unwrap7z: %v", err)
		}
		defer os.Remove(tmp)
		path = tmp
	}

	var opts []mpq.Option
	if *crcFlag {
		opts = append(opts, mpq.WithSectorCRCVerification())
	}

	archive, err := mpq.OpenWithOptions(path, opts...)
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	defer archive.Close()

	switch {
	case *listFlag:
		if err := runList(archive); err != nil {
			log.Fatalf("list: %v", err)
		}
	case *extractFlag != "":
		if err := runExtract(archive, *extractFlag); err != nil {
			log.Fatalf("extract: %v", err)
		}
	case *chkFlag != "":
		if err := runChk(archive, *chkFlag); err != nil {
			log.Fatalf("chk: %v", err)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runList(archive *mpq.Archive) error {
	names, err := archive.ListFiles()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runExtract(archive *mpq.Archive, name string) error {
	ptr, err := archive.FindFile(name)
	if err != nil {
		return err
	}
	data, err := archive.ReadFile(ptr)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func runChk(archive *mpq.Archive, name string) error {
	ptr, err := archive.FindFile(name)
	if err != nil {
		return err
	}
	data, err := archive.ReadFile(ptr)
	if err != nil {
		return err
	}

	chunks, err := chk.Parse(data)
	if err != nil {
		return err
	}
	for _, c := range chunks {
		fmt.Printf("%-4s size=%-8d %T\n", c.Tag, c.Size, c.Item)
	}
	return nil
}

// unwrapSevenZip extracts the first ".mpq"-suffixed member of a 7z
// container to a temp file and returns its path. SC2-era patch bundles
// sometimes ship an MPQ wrapped in a 7z container; this flag is the one
// place in the whole module that touches archive formats other than MPQ
// itself, and the core package never imports it.
func unwrapSevenZip(path string) (string, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer r.Close()

	for _, f := range r.File {
		if filepath.Ext(f.Name) != ".mpq" {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()

		out, err := os.CreateTemp("", "mpqdump-*.mpq")
		if err != nil {
			return "", err
		}
		defer out.Close()

		if _, err := io.Copy(out, rc); err != nil {
			os.Remove(out.Name())
			return "", err
		}
		return out.Name(), nil
	}

	return "", fmt.Errorf("unwrap7z: no .mpq member found in %s", path)
}
