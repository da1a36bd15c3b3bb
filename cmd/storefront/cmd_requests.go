// cmd/storefront/cmd_requests.go
package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	reqdom "anusswar/internal/domain/request"
)

var (
	lesson      reqdom.Lesson
	wsDesc      string
	wsImagePath []string
)

var lessonRequestCmd = &cobra.Command{
	Use:   "lesson-request",
	Short: "Ask for music lessons; signing in is optional",
	RunE: func(cmd *cobra.Command, args []string) error {
		uc, err := online()
		if err != nil {
			return err
		}
		l, err := uc.Requests.SubmitLesson(cmd.Context(), lesson, app.Auth.Current())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Lesson request %s received; we will contact %s\n", l.ID, l.Email)
		return nil
	},
}

var workshopRequestCmd = &cobra.Command{
	Use:   "workshop-request",
	Short: "Request a custom-built instrument",
	RunE: func(cmd *cobra.Command, args []string) error {
		uc, err := online()
		if err != nil {
			return err
		}
		if len(wsImagePath) > reqdom.MaxReferenceImages {
			return reqdom.ErrTooManyImages
		}

		images := make([]reqdom.Image, 0, len(wsImagePath))
		for _, p := range wsImagePath {
			data, err := os.ReadFile(p)
			if err != nil {
				return errors.Wrapf(err, "read image %s", p)
			}
			images = append(images, reqdom.Image{
				FileName:    filepath.Base(p),
				ContentType: mime.TypeByExtension(filepath.Ext(p)),
				Data:        data,
			})
		}

		w, err := uc.Requests.SubmitWorkshop(cmd.Context(), wsDesc, app.Auth.Current(), images)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Custom instrument request %s received (%d image(s))\n", w.ID, len(w.ReferenceImages))
		return nil
	},
}

func init() {
	f := lessonRequestCmd.Flags()
	f.StringVar(&lesson.Name, "name", "", "Your name")
	f.StringVar(&lesson.Email, "email", "", "Contact email")
	f.StringVar(&lesson.Phone, "phone", "", "Phone number")
	f.StringVar(&lesson.Instrument, "instrument", "", "Instrument")
	f.StringVar(&lesson.Experience, "experience", "", "Experience level")
	f.StringVar(&lesson.LessonType, "type", "", "Lesson type")
	f.StringVar(&lesson.Message, "message", "", "Anything else")

	workshopRequestCmd.Flags().StringVar(&wsDesc, "description", "", "What should we build?")
	workshopRequestCmd.Flags().StringArrayVar(&wsImagePath, "image", nil, "Reference image file (repeatable)")

	rootCmd.AddCommand(lessonRequestCmd, workshopRequestCmd)
}
