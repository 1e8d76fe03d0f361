package main

import (
	"net/url"
)

var listingSourceFactories = []ListingSourceFactory{
	&HTTPSourceFactory{},
	&FTPSourceFactory{},
	&SFTPSourceFactory{},
	&SCPSourceFactory{},
}

func getListingSourceFactory(factories []ListingSourceFactory, u *url.URL) ListingSourceFactory {
	for _, factory := range factories {
		if factory.Accept(u) {
			return factory
		}
	}
	return nil
}
