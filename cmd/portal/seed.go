// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"portalne1/internal/database"
)

var seedFlags struct {
	adminName     string
	adminPassword string
	demo          bool
	demoOpts      database.DemoOptions
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the first admin and, optionally, fake demo content",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.IsDev() && seedFlags.adminPassword == database.DefaultAdminPassword {
			return errors.New("refusing to seed the default admin password outside development")
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()
		if err := database.Seed(ctx, db, seedFlags.adminName, seedFlags.adminPassword); err != nil {
			return err
		}
		if seedFlags.demo {
			if err := database.SeedDemo(ctx, db, seedFlags.demoOpts); err != nil {
				return err
			}
			slog.Info("demo content seeded",
				"categories", seedFlags.demoOpts.Categories,
				"journalists", seedFlags.demoOpts.Journalists,
				"posts", seedFlags.demoOpts.Posts,
			)
		}
		return nil
	},
}

var createAdminFlags struct {
	name     string
	password string
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an active ADMIN account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if utf8.RuneCountInString(createAdminFlags.password) < 8 {
			return errors.New("password must be at least 8 characters")
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		id, err := database.CreateAdmin(cmd.Context(), db, createAdminFlags.name, createAdminFlags.password)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created admin %q with id %d\n", createAdminFlags.name, id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd, createAdminCmd)

	f := seedCmd.Flags()
	f.StringVar(&seedFlags.adminName, "admin-name", database.DefaultAdminName, "name of the first admin")
	f.StringVar(&seedFlags.adminPassword, "admin-password", database.DefaultAdminPassword, "password of the first admin")
	f.BoolVar(&seedFlags.demo, "demo", false, "also generate fake journalists, categories and posts")
	f.IntVar(&seedFlags.demoOpts.Categories, "categories", 6, "demo categories to create")
	f.IntVar(&seedFlags.demoOpts.Journalists, "journalists", 4, "demo journalists to create")
	f.IntVar(&seedFlags.demoOpts.Posts, "posts", 40, "demo posts to create")
	f.Int64Var(&seedFlags.demoOpts.Seed, "seed", 0, "random seed for reproducible demo data (0 = time based)")

	f = createAdminCmd.Flags()
	f.StringVar(&createAdminFlags.name, "name", "", "admin login name")
	f.StringVar(&createAdminFlags.password, "password", "", "admin password (min 8 characters)")
	_ = createAdminCmd.MarkFlagRequired("name")
	_ = createAdminCmd.MarkFlagRequired("password")
}
